package intent

import (
	"encoding/json"
	"strings"
)

// sanitizeCategoryKeywords flag a question as category-level. Kept in sync
// with the phrases categoryKeywordField is built from, but matched as single
// fragments so partial phrasing still counts.
var sanitizeCategoryKeywords = []string{
	"тамхи",
	"суудлын автомашин",
	"хүнс",
	"автобензин",
	"түргэн эдэлгээтэй",
	"хэрэглээний бүтээгдэхүүн",
}

// Sanitize repairs an untrusted model-produced intent mapping into a usable
// Intent. It never fails: invalid domains and metrics fall back to keyword
// defaults, filters are coerced to a mapping, and an hscode filter is dropped
// whenever the question or the filters indicate a category query (category
// always wins over commodity codes at the filter level).
func Sanitize(raw map[string]any, question string) Intent {
	q := norm(question)

	out := Intent{
		Domain:  DomainExport,
		Calc:    CalcMonthValue,
		Metric:  MetricAmountUSD,
		Window:  DefaultWindow,
		Filters: Filters{},
		TopN:    DefaultTopN,
	}
	if strings.Contains(q, "импорт") {
		out.Domain = DomainImport
	}
	if raw == nil {
		return out
	}

	if d, ok := raw["domain"].(string); ok {
		switch Domain(d) {
		case DomainExport, DomainImport:
			out.Domain = Domain(d)
		}
	}

	if m, ok := raw["metric"].(string); ok {
		switch Metric(m) {
		case MetricAmountUSD, MetricQuantity, MetricWeightedPrice:
			out.Metric = Metric(m)
		}
	}

	// Calc is passed through for schema validation downstream; an unknown
	// value surfaces as invalid_intent rather than being silently replaced.
	if c, ok := raw["calc"].(string); ok && c != "" {
		out.Calc = Calc(c)
	}

	if f, ok := raw["filters"].(map[string]any); ok {
		for k, v := range f {
			out.Filters[k] = v
		}
	}

	hasCategoryKw := false
	for _, kw := range sanitizeCategoryKeywords {
		if strings.Contains(q, kw) {
			hasCategoryKw = true
			break
		}
	}
	if hasCategoryKw || out.Filters.HasCategory() {
		delete(out.Filters, "hscode")
	}

	// time must be either the literal "latest" or an object; anything else is
	// dropped, leaving the zero spec. A zero spec still resolves to the latest
	// month for querying, but the merge step treats it as absent so a
	// follow-up without a date does not clobber the session's time anchor.
	// Only an explicit "latest" clears a previously chosen year.
	switch t := raw["time"].(type) {
	case string:
		if t == "latest" {
			out.Time = TimeSpec{Latest: true}
		}
	case map[string]any:
		out.Time = timeFromMap(t)
	}

	if w := intFrom(raw["window"]); w >= 1 && w <= 60 {
		out.Window = w
	}
	if n := intFrom(raw["topn"]); n >= 1 && n <= MaxTopN {
		out.TopN = n
	}

	return out
}

func timeFromMap(m map[string]any) TimeSpec {
	var ts TimeSpec
	ts.Year = intFrom(m["year"])
	ts.Month = intFrom(m["month"])
	if ys, ok := m["years"].([]any); ok {
		for _, y := range ys {
			if v := intFrom(y); v != 0 {
				ts.Years = append(ts.Years, v)
			}
		}
	}
	if b, ok := m["latest"].(bool); ok && b {
		ts.Latest = true
	}
	return ts
}

// intFrom converts the numeric shapes encoding/json may produce.
func intFrom(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case json.Number:
		n, _ := x.Int64()
		return int(n)
	case string:
		var n int
		for _, r := range x {
			if r < '0' || r > '9' {
				return 0
			}
			n = n*10 + int(r-'0')
		}
		return n
	default:
		return 0
	}
}
