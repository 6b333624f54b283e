package conversation

import (
	"github.com/trade-chatbot/server/internal/intent"
)

// Granularity of the time axis a user asked to see.
const (
	GranularityMonth = "month"
	GranularityYear  = "year"
)

// Display scale labels the user can toggle between.
const (
	ScaleMillion  = "сая"
	ScaleThousand = "мянга"
)

// Commodity is the product selection carried across turns, resolved from HS
// codes to a human label.
type Commodity struct {
	Label   string   `json:"label"`
	HSCodes []string `json:"hscode"`
}

// TimeState is the accumulated time understanding of a session. Invariant:
// at most one of Year, Years, Latest is set at any time.
type TimeState struct {
	Year        int    `json:"year,omitempty"`
	Years       []int  `json:"years,omitempty"`
	Latest      bool   `json:"latest,omitempty"`
	Granularity string `json:"granularity,omitempty"`
}

// Anchored reports whether any of the three exclusive time fields is set.
func (t TimeState) Anchored() bool {
	return t.Year != 0 || len(t.Years) > 0 || t.Latest
}

// State is the turn-spanning understanding of what the user is asking about.
// One state per session; updated only through MergeIntent and
// ApplyComparePrevYear, both of which return a fresh value and leave their
// input untouched, so in-flight requests can keep reading the old state.
type State struct {
	Domain     intent.Domain `json:"domain,omitempty"`
	Metric     intent.Metric `json:"metric,omitempty"`
	Commodity  *Commodity    `json:"commodity,omitempty"`
	Time       TimeState     `json:"time"`
	ScaleLabel string        `json:"scale_label,omitempty"`
	Unit       string        `json:"unit,omitempty"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	if s.Commodity != nil {
		c := Commodity{Label: s.Commodity.Label}
		c.HSCodes = append([]string(nil), s.Commodity.HSCodes...)
		out.Commodity = &c
	}
	out.Time.Years = append([]int(nil), s.Time.Years...)
	return out
}

// Overrides are fields extracted from a follow-up utterance that take
// precedence over the carried-forward state. Never persisted directly; they
// only reach the state through MergeIntent.
type Overrides struct {
	Granularity     string        `json:"granularity,omitempty"`
	Year            int           `json:"year,omitempty"`
	Years           []int         `json:"years,omitempty"`
	Latest          bool          `json:"latest,omitempty"`
	ScaleLabel      string        `json:"scale_label,omitempty"`
	Metric          intent.Metric `json:"metric,omitempty"`
	Unit            string        `json:"unit,omitempty"`
	ComparePrevYear bool          `json:"compare_prev_year,omitempty"`
}

// Suggestion is one follow-up prompt to surface in the UI.
type Suggestion struct {
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// Clarification is a question the system must ask before it can answer.
type Clarification struct {
	Question string       `json:"question"`
	Choices  []Suggestion `json:"choices"`
}
