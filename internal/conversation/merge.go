package conversation

import (
	"fmt"

	"github.com/trade-chatbot/server/internal/intent"
)

// hsLabelMap resolves an HS code to the label shown for the commodity chip.
var hsLabelMap = map[string]string{
	"2701": "нүүрс",
	"2702": "нүүрс",
	"2603": "зэс",
	"2601": "Төмрийн хүдэр, баяжмал",
}

// MergeIntent combines the previous session state, a freshly extracted
// intent, and follow-up overrides into a new state. The input state is never
// mutated. Later rules override earlier ones; overrides are applied last, and
// every rule that sets one of the exclusive time fields clears the other two.
func MergeIntent(prev State, in intent.Intent, ov Overrides) State {
	s := prev.Clone()

	if in.Domain != "" {
		s.Domain = in.Domain
	}
	if in.Metric != "" {
		s.Metric = in.Metric
	}

	switch in.Time.Kind() {
	case intent.TimeYears:
		s.Time.Years = append([]int(nil), in.Time.Years...)
		s.Time.Year = 0
		s.Time.Latest = false
	case intent.TimeYear, intent.TimeYearMonth:
		s.Time.Year = in.Time.Year
		s.Time.Years = nil
		s.Time.Latest = false
	case intent.TimeLatest:
		if in.Time.Latest {
			s.Time.Latest = true
			s.Time.Year = 0
			s.Time.Years = nil
		}
	}

	// A category question clears the carried commodity outright; a commodity
	// is only set when HS codes arrive without category filters.
	if in.Filters.HasCategory() {
		s.Commodity = nil
	} else if hs := in.Filters.HSCodes(); len(hs) > 0 {
		label, ok := hsLabelMap[hs[0]]
		if !ok {
			label = fmt.Sprintf("HS %s", hs[0])
		}
		s.Commodity = &Commodity{Label: label, HSCodes: hs}
	}

	if ov.Granularity != "" {
		s.Time.Granularity = ov.Granularity
	}
	if ov.Year != 0 {
		s.Time.Year = ov.Year
		s.Time.Years = nil
		s.Time.Latest = false
	}
	if len(ov.Years) > 0 {
		s.Time.Years = append([]int(nil), ov.Years...)
		s.Time.Year = 0
		s.Time.Latest = false
	}
	if ov.Latest {
		s.Time.Latest = true
		s.Time.Year = 0
		s.Time.Years = nil
	}
	if ov.ScaleLabel != "" {
		s.ScaleLabel = ov.ScaleLabel
	}
	if ov.Metric != "" {
		s.Metric = ov.Metric
	}
	if ov.Unit != "" {
		s.Unit = ov.Unit
	}

	return s
}

// ApplyComparePrevYear expands a single selected year into the [year-1, year]
// pair used for comparison. A state without a plausible single year, or with
// a years range already chosen, is returned unchanged (as a copy).
func ApplyComparePrevYear(s State) State {
	out := s.Clone()

	if out.Time.Year >= 1900 && len(out.Time.Years) == 0 {
		out.Time.Years = []int{out.Time.Year - 1, out.Time.Year}
		out.Time.Year = 0
		out.Time.Latest = false
	}

	return out
}
