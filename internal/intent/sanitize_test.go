package intent

import (
	"testing"
)

func TestSanitizeBogusMetricAndCategoryGuard(t *testing.T) {
	raw := map[string]any{
		"metric": "bogus",
		"filters": map[string]any{
			"sub1":   "x",
			"hscode": []any{"2701"},
		},
	}

	out := Sanitize(raw, "ямар нэгэн асуулт")

	if out.Metric != MetricAmountUSD {
		t.Errorf("invalid metric must default to amountUSD, got %s", out.Metric)
	}
	if _, ok := out.Filters["hscode"]; ok {
		t.Errorf("hscode must be removed when category filters are present, got %v", out.Filters)
	}
	if out.Filters["sub1"] != "x" {
		t.Errorf("category filter must survive, got %v", out.Filters)
	}
}

func TestSanitizeCategoryKeywordInQuestion(t *testing.T) {
	raw := map[string]any{
		"filters": map[string]any{"hscode": []any{"8703"}},
	}

	out := Sanitize(raw, "тамхи импортын дүн")

	if _, ok := out.Filters["hscode"]; ok {
		t.Errorf("category keyword in question must drop hscode, got %v", out.Filters)
	}
	if out.Domain != DomainImport {
		t.Errorf("domain must default by keyword scan, got %s", out.Domain)
	}
}

func TestSanitizeDomainDefaults(t *testing.T) {
	tests := []struct {
		raw      map[string]any
		question string
		want     Domain
	}{
		{nil, "импорт хэд вэ", DomainImport},
		{nil, "экспорт хэд вэ", DomainExport},
		{map[string]any{"domain": "weird"}, "экспорт", DomainExport},
		{map[string]any{"domain": "import"}, "экспорт", DomainImport},
	}
	for _, tc := range tests {
		if got := Sanitize(tc.raw, tc.question).Domain; got != tc.want {
			t.Errorf("Sanitize(%v, %q).Domain = %s, want %s", tc.raw, tc.question, got, tc.want)
		}
	}
}

func TestSanitizeTimeCoercion(t *testing.T) {
	// invalid time shapes are dropped, leaving an unanchored spec
	out := Sanitize(map[string]any{"time": 42.0}, "асуулт")
	if out.Time.Latest || out.Time.Year != 0 || len(out.Time.Years) > 0 {
		t.Errorf("invalid time must be dropped, got %+v", out.Time)
	}

	out = Sanitize(map[string]any{"time": "latest"}, "асуулт")
	if !out.Time.Latest {
		t.Errorf("literal latest must set the explicit latest flag, got %+v", out.Time)
	}

	out = Sanitize(map[string]any{"time": map[string]any{"year": 2025.0, "month": 3.0}}, "асуулт")
	if out.Time.Year != 2025 || out.Time.Month != 3 {
		t.Errorf("object time must be kept, got %+v", out.Time)
	}

	out = Sanitize(map[string]any{"time": map[string]any{"years": []any{2024.0, 2025.0}}}, "асуулт")
	if len(out.Time.Years) != 2 || out.Time.Years[0] != 2024 {
		t.Errorf("years list must be kept, got %+v", out.Time)
	}
}

func TestSanitizeFiltersCoercion(t *testing.T) {
	out := Sanitize(map[string]any{"filters": "not a map"}, "асуулт")
	if out.Filters == nil {
		t.Fatal("filters must always be a usable mapping")
	}
	if len(out.Filters) != 0 {
		t.Errorf("non-map filters must coerce to empty, got %v", out.Filters)
	}
}

func TestSanitizeWindowTopNClamps(t *testing.T) {
	out := Sanitize(map[string]any{"window": 900.0, "topn": 10000.0}, "асуулт")
	if out.Window != DefaultWindow || out.TopN != DefaultTopN {
		t.Errorf("out-of-range window/topn must fall back to defaults, got %d/%d", out.Window, out.TopN)
	}

	out = Sanitize(map[string]any{"window": 12.0, "topn": 100.0}, "асуулт")
	if out.Window != 12 || out.TopN != 100 {
		t.Errorf("valid window/topn must be kept, got %d/%d", out.Window, out.TopN)
	}
}
