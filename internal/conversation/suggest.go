package conversation

import (
	"github.com/trade-chatbot/server/internal/intent"
)

// metricSuggestions in presentation order.
var metricSuggestions = []Suggestion{
	{Label: "Үнийн дүн", Prompt: "үнийн дүнгээр"},
	{Label: "Тоо хэмжээ", Prompt: "тоо хэмжээгээр"},
	{Label: "Нэгж үнэ", Prompt: "нэгж үнээр"},
}

// BuildSuggestions produces the ordered follow-up prompts for the UI. Each
// rule appends independently; duplicates are removed afterwards keeping the
// first occurrence, so insertion order is preserved.
func BuildSuggestions(s State) []Suggestion {
	var out []Suggestion

	if s.Metric == "" {
		out = append(out, metricSuggestions...)
	}

	if !s.Time.Latest {
		out = append(out, Suggestion{Label: "Сүүлийн сар", Prompt: "сүүлийн сар"})
	}

	if s.Time.Granularity != GranularityMonth {
		out = append(out, Suggestion{Label: "Сар бүр", Prompt: "сар бүрээр"})
	}
	if s.Time.Granularity != GranularityYear {
		out = append(out, Suggestion{Label: "Жилээр", Prompt: "жилээр"})
	}

	if s.Time.Year != 0 && len(s.Time.Years) == 0 {
		out = append(out, Suggestion{Label: "Өмнөх онтой харьцуулах", Prompt: "өмнөх онтой харьцуул"})
	}

	if s.Metric == intent.MetricAmountUSD || s.Metric == intent.MetricQuantity {
		if s.ScaleLabel != ScaleMillion {
			out = append(out, Suggestion{Label: "Сая нэгж", Prompt: "сая нэгжээр"})
		}
		if s.ScaleLabel != ScaleThousand {
			out = append(out, Suggestion{Label: "Мянга нэгж", Prompt: "мянга нэгжээр"})
		}
	}

	seen := make(map[Suggestion]bool, len(out))
	clean := out[:0]
	for _, item := range out {
		if !seen[item] {
			seen[item] = true
			clean = append(clean, item)
		}
	}
	return clean
}
