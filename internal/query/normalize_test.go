package query

import (
	"testing"

	"github.com/trade-chatbot/server/internal/intent"
)

func fp(v float64) *float64 { return &v }

func TestNormalizeEmpty(t *testing.T) {
	for _, calc := range []intent.Calc{intent.CalcMonthValue, intent.CalcYoY, intent.CalcTimeseriesMonth} {
		res, warn := Normalize(calc, nil)
		if warn != WarnNoData {
			t.Errorf("Normalize(%s, empty) warn = %q, want %q", calc, warn, WarnNoData)
		}
		if v, ok := res["value"]; !ok || v != nil {
			t.Errorf("Normalize(%s, empty) = %v, want nil value", calc, res)
		}
	}
}

func TestNormalizeYoY(t *testing.T) {
	rows := []Row{{"current": 120.0, "previous": 100.0, "pct": 20.0}}
	res, warn := Normalize(intent.CalcYoY, rows)
	if warn != "" {
		t.Errorf("warn = %q", warn)
	}
	if *res["current"].(*float64) != 120 || *res["previous"].(*float64) != 100 || *res["pct"].(*float64) != 20 {
		t.Errorf("res = %v", res)
	}

	// zero previous year leaves pct NULL
	res, _ = Normalize(intent.CalcYoY, []Row{{"current": 120.0, "previous": 0.0, "pct": nil}})
	if res["pct"].(*float64) != nil {
		t.Errorf("pct must stay nil, got %v", res["pct"])
	}
}

func TestNormalizeTimeseries(t *testing.T) {
	rows := []Row{
		{"year": int32(2025), "month": int32(1), "value": 10.0},
		{"year": int32(2025), "month": int32(2), "value": nil},
	}
	res, warn := Normalize(intent.CalcTimeseriesMonth, rows)
	if warn != "" {
		t.Errorf("warn = %q", warn)
	}
	series := res["series"].([]SeriesPoint)
	if len(series) != 2 {
		t.Fatalf("len = %d", len(series))
	}
	if series[0].Year != 2025 || series[0].Month != 1 || *series[0].Value != 10 {
		t.Errorf("point 0 = %+v", series[0])
	}
	if series[1].Value != nil {
		t.Errorf("NULL value must stay nil, got %v", series[1].Value)
	}
}

func TestNormalizeScalar(t *testing.T) {
	res, warn := Normalize(intent.CalcMonthValue, []Row{{"value": int64(5250000)}})
	if warn != "" || *res["value"].(*float64) != 5250000 {
		t.Errorf("res = %v warn = %q", res, warn)
	}
}

func TestFormatValue(t *testing.T) {
	if got := FormatValue(nil, intent.MetricAmountUSD); got != Placeholder {
		t.Errorf("nil value = %q", got)
	}
	if got := FormatValue(fp(5_250_000), intent.MetricAmountUSD); got != "5.25 сая ам.доллар" {
		t.Errorf("amount = %q", got)
	}
	if got := FormatValue(fp(1_234_567_890), intent.MetricQuantity); got != "1,234.57 сая тонн" {
		t.Errorf("quantity = %q", got)
	}
	if got := FormatValue(fp(83.4), intent.MetricWeightedPrice); got != "83.40 ам.доллар/тонн" {
		t.Errorf("price = %q", got)
	}
}

func TestFormatPct(t *testing.T) {
	if got := FormatPct(nil); got != Placeholder {
		t.Errorf("nil pct = %q", got)
	}
	if got := FormatPct(fp(12.345)); got != "12.35%" {
		t.Errorf("pct = %q", got)
	}
}

func TestInferPeriod(t *testing.T) {
	tests := []struct {
		calc intent.Calc
		want string
	}{
		{intent.CalcTimeseriesMonth, "series_month"},
		{intent.CalcYearTotal, "year"},
		{intent.CalcYTD, "year"},
		{intent.CalcMonthValue, "month"},
		{intent.CalcYoY, "month"},
	}
	for _, tc := range tests {
		if got := InferPeriod(tc.calc); got != tc.want {
			t.Errorf("InferPeriod(%s) = %q, want %q", tc.calc, got, tc.want)
		}
	}
}

func TestGroup(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{999.999, "1,000.00"},
		{1234567.891, "1,234,567.89"},
		{-4321.5, "-4,321.50"},
	}
	for _, tc := range tests {
		if got := group(tc.in); got != tc.want {
			t.Errorf("group(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
