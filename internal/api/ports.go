package api

import (
	"context"
)

// LLM is the model capability the handler depends on. Implemented by
// internal/llm.Client; stubbed in tests.
type LLM interface {
	// JSON asks for a single JSON object.
	JSON(ctx context.Context, prompt string) (map[string]any, error)

	// Text asks for free text; returns "" when the model is rate limited.
	Text(ctx context.Context, prompt string) (string, error)
}
