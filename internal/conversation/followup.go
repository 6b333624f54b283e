package conversation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/trade-chatbot/server/internal/intent"
)

var (
	granMonthRe = regexp.MustCompile(`(сар\s*бүр|сараар|month)`)
	granYearRe  = regexp.MustCompile(`(жилээр|он\s*бүр|year)`)

	// \b is ASCII-only in RE2, so Cyrillic words are matched as substrings.
	scaleMillionRe  = regexp.MustCompile(`сая`)
	scaleThousandRe = regexp.MustCompile(`мянга`)

	metricPriceRe    = regexp.MustCompile(`(нэгж\s*үнэ|дундаж\s*үнэ|unit\s*price|price\s*/\s*unit|ам\.?доллар\s*/\s*тонн|\$/\s*тонн)`)
	metricQuantityRe = regexp.MustCompile(`(тоо\s*хэмжээ|хэмжээ|тонн|kg|кг)`)
	metricAmountRe   = regexp.MustCompile(`(дүн|нийт\s*дүн|үнэ|ам\.?доллар|usd|\$)`)

	followupYearRe = regexp.MustCompile(`\b(20\d{2})\b`)
	latestRe       = regexp.MustCompile(`(сүүлийн|latest|current)`)
	compareRe      = regexp.MustCompile(`(харьцуул|compare|өмнөх\s+он|өнгөрсөн\s+он)`)
)

// DetectFollowup extracts override fields from a follow-up utterance. Purely
// lexical; an empty Overrides value means the utterance carried nothing the
// merge step cares about.
func DetectFollowup(text string) Overrides {
	t := strings.ToLower(strings.TrimSpace(text))
	var ov Overrides

	if granMonthRe.MatchString(t) {
		ov.Granularity = GranularityMonth
	} else if granYearRe.MatchString(t) {
		ov.Granularity = GranularityYear
	}

	if scaleMillionRe.MatchString(t) {
		ov.ScaleLabel = ScaleMillion
	} else if scaleThousandRe.MatchString(t) {
		ov.ScaleLabel = ScaleThousand
	}

	// Metric detection is ordered: unit price phrases contain the words the
	// quantity and amount patterns would also match.
	switch {
	case metricPriceRe.MatchString(t):
		ov.Metric = intent.MetricWeightedPrice
	case metricQuantityRe.MatchString(t):
		ov.Metric = intent.MetricQuantity
	case metricAmountRe.MatchString(t):
		ov.Metric = intent.MetricAmountUSD
	}

	var years []int
	seen := map[int]bool{}
	for _, m := range followupYearRe.FindAllStringSubmatch(t, -1) {
		y, _ := strconv.Atoi(m[1])
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	switch {
	case len(years) == 1:
		ov.Year = years[0]
	case len(years) >= 2:
		sort.Ints(years)
		ov.Years = years
	}

	// "latest" only counts when no explicit year was given.
	if len(years) == 0 && latestRe.MatchString(t) {
		ov.Latest = true
	}

	if compareRe.MatchString(t) {
		ov.ComparePrevYear = true
	}

	return ov
}
