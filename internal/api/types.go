package api

import (
	"github.com/trade-chatbot/server/internal/conversation"
)

// ChatRequest is one user turn.
type ChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"session_id"`
}

// ChatResponse is the full answer contract for one turn.
type ChatResponse struct {
	Answer      string                      `json:"answer"`
	SessionID   string                      `json:"session_id"`
	Meta        map[string]any              `json:"meta"`
	Result      map[string]any              `json:"result"`
	Suggestions []conversation.Suggestion   `json:"suggestions,omitempty"`
	Clarify     *conversation.Clarification `json:"clarify,omitempty"`
}

// Result error codes surfaced to the client.
const (
	codeInvalidIntent      = "invalid_intent"
	codeCalcNotImplemented = "calc_not_implemented"
)
