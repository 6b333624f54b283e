package conversation

import (
	"github.com/trade-chatbot/server/internal/intent"
)

// ToIntent projects the merged session state back onto the intent the query
// builder consumes. The base intent contributes calc, window, topn and the
// month component; the state supplies everything refined across turns.
func ToIntent(s State, base intent.Intent) intent.Intent {
	out := base
	out.Filters = intent.Filters{}
	for k, v := range base.Filters {
		out.Filters[k] = v
	}

	if s.Domain != "" {
		out.Domain = s.Domain
	}
	if s.Metric != "" {
		out.Metric = s.Metric
		if s.Metric == intent.MetricWeightedPrice {
			out.Calc = intent.CalcWeightedPrice
		} else if out.Calc == intent.CalcWeightedPrice {
			out.Calc = intent.CalcMonthValue
		}
	}

	switch {
	case len(s.Time.Years) > 0:
		out.Time = intent.TimeSpec{Years: append([]int(nil), s.Time.Years...)}
	case s.Time.Year != 0:
		out.Time = intent.TimeSpec{Year: s.Time.Year, Month: base.Time.Month}
	case s.Time.Latest:
		out.Time = intent.TimeSpec{Latest: true}
	}

	// Granularity and the time shape steer the calc for plain value queries.
	switch {
	case s.Time.Granularity == GranularityMonth && isPlainValue(out.Calc):
		out.Calc = intent.CalcTimeseriesMonth
	case s.Time.Granularity == GranularityYear && isPlainValue(out.Calc) && out.Time.Year != 0:
		out.Calc = intent.CalcYearTotal
	case len(out.Time.Years) > 0 && (isPlainValue(out.Calc) || out.Calc == intent.CalcYoY):
		// A year range cannot express same-month-previous-year, and without
		// explicit granularity a plain value over a range reads best as a
		// series either way.
		out.Calc = intent.CalcTimeseriesMonth
	case out.Time.Year != 0 && out.Time.Month == 0 && out.Calc == intent.CalcMonthValue:
		out.Calc = intent.CalcYearTotal
	}

	// Carry the session commodity when this turn brought no filter of its own.
	if s.Commodity != nil && !out.Filters.HasCategory() && len(out.Filters.HSCodes()) == 0 {
		out.Filters["hscode"] = s.Commodity.HSCodes
	}

	return out
}

func isPlainValue(c intent.Calc) bool {
	return c == intent.CalcMonthValue || c == intent.CalcYearTotal
}
