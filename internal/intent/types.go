package intent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Domain identifies the trade flow direction a question is about.
type Domain string

const (
	DomainExport Domain = "export"
	DomainImport Domain = "import"
)

// Calc is the aggregation kind requested by the user.
type Calc string

const (
	CalcMonthValue      Calc = "month_value"      // single month sum
	CalcYTD             Calc = "ytd"              // year to date sum
	CalcYoY             Calc = "yoy"              // same month, previous year comparison
	CalcTimeseriesMonth Calc = "timeseries_month" // month-by-month series
	CalcYearTotal       Calc = "year_total"       // full year sum
	CalcAvgMonths       Calc = "avg_months"       // trailing N month average
	CalcAvgYears        Calc = "avg_years"        // trailing N year average
	CalcWeightedPrice   Calc = "weighted_price"   // sum(amountUSD)/sum(quantity)
)

// Metric is the measured quantity.
type Metric string

const (
	MetricAmountUSD     Metric = "amountUSD"
	MetricQuantity      Metric = "quantity"
	MetricWeightedPrice Metric = "weighted_price"
)

const (
	DefaultWindow = 3
	DefaultTopN   = 50
	MaxTopN       = 500
)

// TimeKind discriminates the three shapes a time specification can take.
type TimeKind int

const (
	TimeLatest TimeKind = iota
	TimeYear
	TimeYearMonth
	TimeYears
)

// TimeSpec is the time range of a question. On the wire it is either the
// literal string "latest" or an object carrying year / year+month / years.
// At most one shape is populated at a time.
type TimeSpec struct {
	Latest bool  `json:"latest,omitempty"`
	Year   int   `json:"year,omitempty"`
	Month  int   `json:"month,omitempty"`
	Years  []int `json:"years,omitempty"`
}

// Kind reports which variant the spec carries. Years wins over a single year,
// matching the merge precedence used downstream.
func (t TimeSpec) Kind() TimeKind {
	switch {
	case len(t.Years) > 0:
		return TimeYears
	case t.Year != 0 && t.Month != 0:
		return TimeYearMonth
	case t.Year != 0:
		return TimeYear
	default:
		return TimeLatest
	}
}

// IsLatest reports whether the spec resolves to the latest available month.
func (t TimeSpec) IsLatest() bool {
	return t.Kind() == TimeLatest
}

// MarshalJSON renders "latest" for the latest variant so the wire shape stays
// compatible with what the model is prompted to produce.
func (t TimeSpec) MarshalJSON() ([]byte, error) {
	if t.IsLatest() {
		return json.Marshal("latest")
	}
	type alias TimeSpec
	return json.Marshal(alias(t))
}

// UnmarshalJSON accepts the string "latest" or the object form.
func (t *TimeSpec) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s == "latest" {
			*t = TimeSpec{Latest: true}
			return nil
		}
		return fmt.Errorf("unknown time literal %q", s)
	}
	type alias TimeSpec
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*t = TimeSpec(a)
	return nil
}

// Year and month bounds accepted on the wire. A populated field outside the
// bounds makes the whole intent invalid; zero means the field is absent.
const (
	MinYear  = 1900
	MaxYear  = 2100
	MinMonth = 1
	MaxMonth = 12
)

// RegisterValidations adds the TimeSpec range rule to a validator instance.
// Struct tags cannot express "zero or in range", so the time check is a
// struct-level rule.
func RegisterValidations(v *validator.Validate) {
	v.RegisterStructValidation(validateTimeSpec, TimeSpec{})
}

func validateTimeSpec(sl validator.StructLevel) {
	t := sl.Current().Interface().(TimeSpec)
	if t.Year != 0 && (t.Year < MinYear || t.Year > MaxYear) {
		sl.ReportError(t.Year, "Year", "year", "year_range", "")
	}
	if t.Month != 0 && (t.Month < MinMonth || t.Month > MaxMonth) {
		sl.ReportError(t.Month, "Month", "month", "month_range", "")
	}
	for _, y := range t.Years {
		if y < MinYear || y > MaxYear {
			sl.ReportError(t.Years, "Years", "years", "year_range", "")
			break
		}
	}
}

// Filters is the raw filter mapping of an intent. Keys in use: hscode,
// purpose, sub1, sub2, sub3.
type Filters map[string]any

// categoryKeys are the filter keys that address category-level views.
var categoryKeys = [...]string{"purpose", "sub1", "sub2", "sub3"}

// HasCategory reports whether any category filter key carries a truthy value.
func (f Filters) HasCategory() bool {
	for _, k := range categoryKeys {
		if truthy(f[k]) {
			return true
		}
	}
	return false
}

// HSCodes normalises the hscode filter into a list of non-empty strings.
// The value may arrive from the model as a string, a list of strings, or a
// list of arbitrary scalars.
func (f Filters) HSCodes() []string {
	raw, ok := f["hscode"]
	if !ok {
		return nil
	}
	var vals []any
	switch v := raw.(type) {
	case []any:
		vals = v
	case []string:
		for _, s := range v {
			vals = append(vals, s)
		}
	default:
		vals = []any{v}
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		s := trimString(v)
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Intent is the structured representation of one analytic question.
// Constructed fresh per turn and immutable once built.
type Intent struct {
	Domain  Domain   `json:"domain" validate:"oneof=export import"`
	Calc    Calc     `json:"calc" validate:"oneof=month_value ytd yoy timeseries_month year_total avg_months avg_years weighted_price"`
	Metric  Metric   `json:"metric" validate:"oneof=amountUSD quantity weighted_price"`
	Time    TimeSpec `json:"time"`
	Window  int      `json:"window" validate:"min=1,max=60"`
	Filters Filters  `json:"filters"`
	TopN    int      `json:"topn" validate:"min=1,max=500"`
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case []any:
		return len(x) > 0
	default:
		return true
	}
}

func trimString(v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(s)
}
