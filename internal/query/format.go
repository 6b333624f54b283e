package query

import (
	"fmt"
	"strings"

	"github.com/trade-chatbot/server/internal/intent"
)

// Placeholder rendered for missing values.
const Placeholder = "—"

// Unit returns the display unit for a metric.
func Unit(m intent.Metric) string {
	switch m {
	case intent.MetricAmountUSD:
		return "ам.доллар"
	case intent.MetricQuantity:
		return "тонн"
	default:
		return "ам.доллар/тонн"
	}
}

// FormatValue renders a numeric value for display. amountUSD and quantity are
// shown in millions with a "сая" marker; weighted_price keeps its scale and
// shows the composite unit. Missing values render as the placeholder.
func FormatValue(v *float64, m intent.Metric) string {
	if v == nil {
		return Placeholder
	}

	u := Unit(m)
	if m == intent.MetricWeightedPrice {
		return fmt.Sprintf("%s %s", group(*v), u)
	}
	return fmt.Sprintf("%s сая %s", group(*v/1_000_000.0), u)
}

// FormatPct renders a percentage with two decimals.
func FormatPct(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// InferPeriod labels the period granularity of a calc for the result contract.
func InferPeriod(calc intent.Calc) string {
	switch calc {
	case intent.CalcTimeseriesMonth:
		return "series_month"
	case intent.CalcYTD, intent.CalcYearTotal, intent.CalcAvgYears:
		return "year"
	default:
		return "month"
	}
}

// group renders a float with two decimals and comma thousand separators.
func group(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	b.WriteString(frac)
	return b.String()
}
