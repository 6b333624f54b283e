package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trade-chatbot/server/internal/intent"
)

// ErrCalcNotImplemented marks calc kinds that are accepted by the intent
// schema but have no SQL mapping yet (avg_months, avg_years).
var ErrCalcNotImplemented = errors.New("calc not implemented")

// Meta describes the query that was built, for response metadata and logging.
type Meta struct {
	View     string        `json:"view"`
	ViewType ViewType      `json:"view_type"`
	Calc     intent.Calc   `json:"calc"`
	Metric   intent.Metric `json:"metric"`
}

// categoryColumns whitelists the filter columns of the category view, in the
// order they are appended to the WHERE clause. Filter keys outside this set
// never reach SQL.
var categoryColumns = []string{"purpose", "sub1", "sub2", "sub3"}

func metricColumn(m intent.Metric) string {
	if m == intent.MetricQuantity {
		return "quantity"
	}
	return "amount_usd"
}

// BuildLatestPeriod returns the query resolving "latest" to a concrete
// (year, month) pair for the given view.
func BuildLatestPeriod(view string) string {
	return fmt.Sprintf("SELECT year, month FROM %s ORDER BY year DESC, month DESC LIMIT 1", view)
}

// cond accumulates WHERE fragments with positional parameters.
type cond struct {
	frags []string
	args  []any
}

func (c *cond) add(frag string, args ...any) {
	n := len(c.args)
	for i := range args {
		frag = strings.Replace(frag, "?", fmt.Sprintf("$%d", n+i+1), 1)
	}
	c.frags = append(c.frags, frag)
	c.args = append(c.args, args...)
}

func (c *cond) where() string {
	if len(c.frags) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.frags, " AND ")
}

// addFilters appends the intent filters appropriate to the view type.
func addFilters(c *cond, vt ViewType, filters intent.Filters) {
	if vt == ViewTypeCategory {
		for _, col := range categoryColumns {
			if s, ok := filters[col].(string); ok && s != "" {
				c.add(col+" ILIKE ?", "%"+s+"%")
			}
		}
		return
	}
	if hs := filters.HSCodes(); len(hs) > 0 {
		c.add("hscode = ANY(?)", hs)
	}
}

// Build maps an intent onto a parameterized query against its resolved view.
// "latest" must already be resolved to a concrete year/month by the caller
// (see BuildLatestPeriod); Build treats an unanchored time spec the same as
// the latest single year for year-scoped calcs and fails for month-scoped
// ones, so callers resolve first.
func Build(in intent.Intent) (string, []any, Meta, error) {
	view, vt := ResolveView(in.Domain, false, in.Filters)
	meta := Meta{View: view, ViewType: vt, Calc: in.Calc, Metric: in.Metric}

	m := metricColumn(in.Metric)
	c := &cond{}

	switch in.Calc {
	case intent.CalcMonthValue:
		addTimeScope(c, in.Time)
		addFilters(c, vt, in.Filters)
		sql := fmt.Sprintf("SELECT COALESCE(SUM(%s), 0) AS value FROM %s%s", m, view, c.where())
		return sql, c.args, meta, nil

	case intent.CalcYearTotal:
		addYearScope(c, in.Time)
		addFilters(c, vt, in.Filters)
		sql := fmt.Sprintf("SELECT COALESCE(SUM(%s), 0) AS value FROM %s%s", m, view, c.where())
		return sql, c.args, meta, nil

	case intent.CalcYTD:
		addYearScope(c, in.Time)
		if in.Time.Month != 0 {
			c.add("month <= ?", in.Time.Month)
		}
		addFilters(c, vt, in.Filters)
		sql := fmt.Sprintf("SELECT COALESCE(SUM(%s), 0) AS value FROM %s%s", m, view, c.where())
		return sql, c.args, meta, nil

	case intent.CalcYoY:
		if in.Time.Year == 0 || in.Time.Month == 0 {
			return "", nil, meta, fmt.Errorf("yoy requires a resolved year and month")
		}
		c.add("year IN (?, ?)", in.Time.Year, in.Time.Year-1)
		c.add("month = ?", in.Time.Month)
		addFilters(c, vt, in.Filters)
		cur := fmt.Sprintf("SUM(%s) FILTER (WHERE year = $1)", m)
		prev := fmt.Sprintf("SUM(%s) FILTER (WHERE year = $2)", m)
		sql := fmt.Sprintf(
			"SELECT COALESCE(%[1]s, 0) AS current, COALESCE(%[2]s, 0) AS previous, "+
				"CASE WHEN COALESCE(%[2]s, 0) = 0 THEN NULL "+
				"ELSE ROUND((%[1]s - %[2]s) / %[2]s * 100, 2) END AS pct "+
				"FROM %[3]s%[4]s",
			cur, prev, view, c.where())
		return sql, c.args, meta, nil

	case intent.CalcTimeseriesMonth:
		addYearScope(c, in.Time)
		addFilters(c, vt, in.Filters)
		topn := in.TopN
		if topn <= 0 || topn > intent.MaxTopN {
			topn = intent.MaxTopN
		}
		sql := fmt.Sprintf(
			"SELECT year, month, COALESCE(SUM(%s), 0) AS value FROM %s%s GROUP BY year, month ORDER BY year, month LIMIT %d",
			m, view, c.where(), topn)
		return sql, c.args, meta, nil

	case intent.CalcWeightedPrice:
		addTimeScope(c, in.Time)
		addFilters(c, vt, in.Filters)
		sql := fmt.Sprintf(
			"SELECT SUM(amount_usd) / NULLIF(SUM(quantity), 0) AS value FROM %s%s",
			view, c.where())
		return sql, c.args, meta, nil

	case intent.CalcAvgMonths, intent.CalcAvgYears:
		return "", nil, meta, fmt.Errorf("%w: %s", ErrCalcNotImplemented, in.Calc)

	default:
		return "", nil, meta, fmt.Errorf("unknown calc %q", in.Calc)
	}
}

// addTimeScope constrains to the tightest period the spec names: a single
// month, a single year, or a year list.
func addTimeScope(c *cond, t intent.TimeSpec) {
	switch t.Kind() {
	case intent.TimeYearMonth:
		c.add("year = ?", t.Year)
		c.add("month = ?", t.Month)
	case intent.TimeYear:
		c.add("year = ?", t.Year)
	case intent.TimeYears:
		c.add("year = ANY(?)", t.Years)
	}
}

// addYearScope constrains year-grained calcs, ignoring any month component.
func addYearScope(c *cond, t intent.TimeSpec) {
	switch t.Kind() {
	case intent.TimeYears:
		c.add("year = ANY(?)", t.Years)
	case intent.TimeYear, intent.TimeYearMonth:
		c.add("year = ?", t.Year)
	}
}
