package conversation

// NeedsClarification decides whether the state is too ambiguous to answer.
// Only a missing time anchor triggers a question; metric ambiguity is left to
// backend inference on purpose, to keep interruptions rare.
func NeedsClarification(s State) *Clarification {
	if s.Time.Anchored() {
		return nil
	}

	return &Clarification{
		Question: "Аль оны мэдээлэл вэ?",
		Choices: []Suggestion{
			{Label: "2025 он", Prompt: "2025 он"},
			{Label: "2024 он", Prompt: "2024 он"},
			{Label: "Харьцуулах", Prompt: "2024, 2025 харьцуул"},
		},
	}
}
