package query

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/trade-chatbot/server/internal/intent"
)

func TestResolveView(t *testing.T) {
	tests := []struct {
		name        string
		domain      intent.Domain
		needCompany bool
		filters     intent.Filters
		wantView    string
		wantType    ViewType
	}{
		{"export hs", intent.DomainExport, false, nil, ViewExport, ViewTypeHS},
		{"export company", intent.DomainExport, true, nil, ViewExportCompany, ViewTypeHS},
		{"import hs", intent.DomainImport, false, nil, ViewImport, ViewTypeHS},
		{"import category", intent.DomainImport, false, intent.Filters{"sub3": "тамхи"}, ViewImportCategory, ViewTypeCategory},
		{"export category falls back to hs", intent.DomainExport, false, intent.Filters{"sub1": "хүнс"}, ViewExport, ViewTypeHS},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			view, vt := ResolveView(tc.domain, tc.needCompany, tc.filters)
			if view != tc.wantView || vt != tc.wantType {
				t.Errorf("got (%s, %s), want (%s, %s)", view, vt, tc.wantView, tc.wantType)
			}
		})
	}
}

func TestBuildMonthValue(t *testing.T) {
	sql, args, meta, err := Build(intent.Intent{
		Domain:  intent.DomainExport,
		Calc:    intent.CalcMonthValue,
		Metric:  intent.MetricAmountUSD,
		Time:    intent.TimeSpec{Year: 2025, Month: 3},
		Filters: intent.Filters{"hscode": []any{"2701", "2702"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "SELECT COALESCE(SUM(amount_usd), 0) AS value FROM public.v_export_monthly_hs" +
		" WHERE year = $1 AND month = $2 AND hscode = ANY($3)"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if !reflect.DeepEqual(args, []any{2025, 3, []string{"2701", "2702"}}) {
		t.Errorf("args = %v", args)
	}
	if meta.View != ViewExport || meta.ViewType != ViewTypeHS {
		t.Errorf("meta = %+v", meta)
	}
}

func TestBuildCategoryFilters(t *testing.T) {
	sql, args, meta, err := Build(intent.Intent{
		Domain:  intent.DomainImport,
		Calc:    intent.CalcYearTotal,
		Metric:  intent.MetricAmountUSD,
		Time:    intent.TimeSpec{Year: 2024},
		Filters: intent.Filters{"sub3": "тамхи", "hscode": []any{"2401"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if meta.View != ViewImportCategory {
		t.Errorf("view = %s", meta.View)
	}
	if !strings.Contains(sql, "sub3 ILIKE $2") {
		t.Errorf("category filter missing: %q", sql)
	}
	if strings.Contains(sql, "hscode") {
		t.Errorf("hscode must not reach the category view: %q", sql)
	}
	if !reflect.DeepEqual(args, []any{2024, "%тамхи%"}) {
		t.Errorf("args = %v", args)
	}
}

func TestBuildYoY(t *testing.T) {
	sql, args, _, err := Build(intent.Intent{
		Domain: intent.DomainExport,
		Calc:   intent.CalcYoY,
		Metric: intent.MetricQuantity,
		Time:   intent.TimeSpec{Year: 2025, Month: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, frag := range []string{
		"SUM(quantity) FILTER (WHERE year = $1)",
		"SUM(quantity) FILTER (WHERE year = $2)",
		"year IN ($1, $2)",
		"month = $3",
	} {
		if !strings.Contains(sql, frag) {
			t.Errorf("missing %q in %q", frag, sql)
		}
	}
	if !reflect.DeepEqual(args, []any{2025, 2024, 3}) {
		t.Errorf("args = %v", args)
	}

	_, _, _, err = Build(intent.Intent{
		Domain: intent.DomainExport,
		Calc:   intent.CalcYoY,
		Metric: intent.MetricQuantity,
		Time:   intent.TimeSpec{Year: 2025},
	})
	if err == nil {
		t.Error("yoy without a month must fail")
	}
}

func TestBuildTimeseriesMonth(t *testing.T) {
	sql, args, _, err := Build(intent.Intent{
		Domain: intent.DomainImport,
		Calc:   intent.CalcTimeseriesMonth,
		Metric: intent.MetricAmountUSD,
		Time:   intent.TimeSpec{Years: []int{2024, 2025}},
		TopN:   50,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sql, "GROUP BY year, month ORDER BY year, month LIMIT 50") {
		t.Errorf("series shape wrong: %q", sql)
	}
	if !strings.Contains(sql, "year = ANY($1)") {
		t.Errorf("years scope missing: %q", sql)
	}
	if !reflect.DeepEqual(args, []any{[]int{2024, 2025}}) {
		t.Errorf("args = %v", args)
	}
}

func TestBuildWeightedPrice(t *testing.T) {
	sql, _, _, err := Build(intent.Intent{
		Domain: intent.DomainExport,
		Calc:   intent.CalcWeightedPrice,
		Metric: intent.MetricWeightedPrice,
		Time:   intent.TimeSpec{Year: 2025, Month: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sql, "SUM(amount_usd) / NULLIF(SUM(quantity), 0)") {
		t.Errorf("weighted price expression missing: %q", sql)
	}
}

func TestBuildNotImplementedCalcs(t *testing.T) {
	for _, calc := range []intent.Calc{intent.CalcAvgMonths, intent.CalcAvgYears} {
		_, _, _, err := Build(intent.Intent{Domain: intent.DomainExport, Calc: calc})
		if !errors.Is(err, ErrCalcNotImplemented) {
			t.Errorf("Build(%s) err = %v, want ErrCalcNotImplemented", calc, err)
		}
	}
}

func TestBuildLatestPeriod(t *testing.T) {
	got := BuildLatestPeriod(ViewImport)
	want := "SELECT year, month FROM public.v_import_monthly_hs ORDER BY year DESC, month DESC LIMIT 1"
	if got != want {
		t.Errorf("got %q", got)
	}
}
