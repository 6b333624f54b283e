package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// hsCodeMap maps well-known commodity keywords to their HS code groups.
var hsCodeMap = map[string][]string{
	"нүүрс":      {"2701", "2702"},
	"зэс":        {"2603"},
	"төмөр":      {"2601"},
	"газрын тос": {"2709"},
}

// hsKeywordOrder fixes the scan order over hsCodeMap; Go map iteration is
// randomised and the extractor must stay deterministic.
var hsKeywordOrder = []string{"нүүрс", "зэс", "төмөр", "газрын тос"}

// categoryKeywordField maps a category phrase to the view column it filters.
// Values stay short; the SQL builder matches them with ILIKE '%...%'.
var categoryKeywordField = map[string]string{
	"тамхи, суудлын автомашин": "sub3",
	"хүнс, автобензин":         "sub2",
	"түргэн эдэлгээтэй":        "ub1",
	"хэрэглээний бүтээгдэхүүн": "purpose",
}

var categoryKeywordOrder = []string{
	"тамхи, суудлын автомашин",
	"хүнс, автобензин",
	"түргэн эдэлгээтэй",
	"хэрэглээний бүтээгдэхүүн",
}

var (
	yearMonthSarRe  = regexp.MustCompile(`(20\d{2})\D+(\d{1,2})\D*сар`)
	yearMonthBareRe = regexp.MustCompile(`\b(20\d{2})\D+(\d{1,2})\b`)
	fourDigitRe     = regexp.MustCompile(`\b(\d{4})\b`)
)

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// findYearMonth extracts an explicit year and optional month from the text.
// Returns zeros when nothing plausible is present.
func findYearMonth(q string) (int, int) {
	if m := yearMonthSarRe.FindStringSubmatch(q); m != nil {
		y, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return y, mm
	}
	if m := yearMonthBareRe.FindStringSubmatch(q); m != nil {
		y, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if mm >= 1 && mm <= 12 {
			return y, mm
		}
	}
	return 0, 0
}

// inferCategoryFilters returns category filters like {"sub3": "тамхи, суудлын
// автомашин"} based on keyword hits in the question.
func inferCategoryFilters(q string) Filters {
	out := Filters{}
	for _, kw := range categoryKeywordOrder {
		if strings.Contains(q, kw) {
			out[categoryKeywordField[kw]] = kw
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// inferHSCodes extracts HS codes the user typed directly, excluding year-like
// values, then falls back to the keyword map.
func inferHSCodes(q string) []string {
	var hs []string
	for _, m := range fourDigitRe.FindAllStringSubmatch(q, -1) {
		n, _ := strconv.Atoi(m[1])
		if n >= 2000 && n <= 2030 {
			continue
		}
		hs = append(hs, m[1])
	}
	if len(hs) > 0 {
		return hs
	}
	for _, kw := range hsKeywordOrder {
		if strings.Contains(q, kw) {
			return hsCodeMap[kw]
		}
	}
	return nil
}

// ExtractFallback builds an intent from the question text alone, without any
// model call. It never fails; absent matches fall through to defaults. Used
// when the model is rate limited.
func ExtractFallback(question string) Intent {
	q := norm(question)

	domain := DomainExport
	if strings.Contains(q, "импорт") {
		domain = DomainImport
	}

	metric := MetricAmountUSD
	calc := CalcMonthValue
	switch {
	case strings.Contains(q, "нэгж") || strings.Contains(q, "дундаж үнэ") || strings.Contains(q, "unit price"):
		metric = MetricWeightedPrice
		calc = CalcWeightedPrice
	case strings.Contains(q, "тонн") || strings.Contains(q, "тоо хэмжээ") || strings.Contains(q, "хэмжээ"):
		metric = MetricQuantity
	}

	var ts TimeSpec
	switch y, m := findYearMonth(q); {
	case y != 0 && m != 0:
		ts = TimeSpec{Year: y, Month: m}
	case y != 0:
		ts = TimeSpec{Year: y}
	default:
		ts = TimeSpec{Latest: true}
	}

	filters := Filters{}
	// Category keywords win over HS inference to avoid over-broad HS groupings.
	if cat := inferCategoryFilters(q); cat != nil {
		for k, v := range cat {
			filters[k] = v
		}
	} else if hs := inferHSCodes(q); hs != nil {
		filters["hscode"] = hs
	}

	return Intent{
		Domain:  domain,
		Calc:    calc,
		Metric:  metric,
		Time:    ts,
		Window:  DefaultWindow,
		Filters: filters,
		TopN:    DefaultTopN,
	}
}
