package query

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/trade-chatbot/server/internal/intent"
)

// WarnNoData is the warning code attached when a query matched no rows.
const WarnNoData = "no_data"

// SeriesPoint is one month of a timeseries result.
type SeriesPoint struct {
	Year  int      `json:"year"`
	Month int      `json:"month"`
	Value *float64 `json:"value"`
}

// Normalize shapes raw rows into the calc-specific result contract.
// Returns the contract mapping plus a warning code ("" when clean).
//   - yoy: first row's current/previous/pct
//   - timeseries_month: every row projected to {year, month, value} in order
//   - everything else: first row's value
//
// An empty row set yields {"value": nil} with the no_data warning.
func Normalize(calc intent.Calc, rows []Row) (map[string]any, string) {
	if len(rows) == 0 {
		return map[string]any{"value": nil}, WarnNoData
	}

	switch calc {
	case intent.CalcYoY:
		r0 := rows[0]
		return map[string]any{
			"current":  AsFloatPtr(r0["current"]),
			"previous": AsFloatPtr(r0["previous"]),
			"pct":      AsFloatPtr(r0["pct"]),
		}, ""

	case intent.CalcTimeseriesMonth:
		series := make([]SeriesPoint, 0, len(rows))
		for _, r := range rows {
			series = append(series, SeriesPoint{
				Year:  AsInt(r["year"]),
				Month: AsInt(r["month"]),
				Value: AsFloatPtr(r["value"]),
			})
		}
		return map[string]any{"series": series}, ""

	default:
		return map[string]any{"value": AsFloatPtr(rows[0]["value"])}, ""
	}
}

// AsInt converts the integer shapes pgx and encoding/json produce.
func AsInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int16:
		return int(x)
	case int32:
		return int(x)
	case int64:
		return int(x)
	case float64:
		return int(x)
	default:
		return 0
	}
}

// AsFloatPtr converts a scalar column value to *float64, nil for NULL or
// unrecognised types. pgx returns numeric columns as pgtype.Numeric.
func AsFloatPtr(v any) *float64 {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		return &x
	case float32:
		f := float64(x)
		return &f
	case int:
		f := float64(x)
		return &f
	case int32:
		f := float64(x)
		return &f
	case int64:
		f := float64(x)
		return &f
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		fv, err := x.Float64Value()
		if err != nil || !fv.Valid {
			return nil
		}
		f := fv.Float64
		return &f
	default:
		return nil
	}
}
