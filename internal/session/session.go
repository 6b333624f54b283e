package session

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/trade-chatbot/server/internal/conversation"
)

// Repository persists per-session conversation state and turn history.
// Sessions are created on first use and expire with their TTL; the merge
// pipeline itself never talks to storage.
type Repository interface {
	// LoadState retrieves the session state. The second result is false when
	// the session has no stored state yet.
	LoadState(ctx context.Context, sessionID string) (conversation.State, bool, error)

	// SaveState stores the session state, refreshing the TTL.
	SaveState(ctx context.Context, sessionID string, state conversation.State) error

	// AddMessage appends one turn message to the session history.
	AddMessage(ctx context.Context, sessionID string, message *schema.Message) error

	// LoadHistory retrieves the session's message history, oldest first.
	LoadHistory(ctx context.Context, sessionID string) ([]*schema.Message, error)

	// Clear removes all stored data for the session.
	Clear(ctx context.Context, sessionID string) error
}

// Config controls session retention and how much history feeds prompts.
type Config struct {
	TTL      string `envconfig:"SESSION_TTL" default:"30m"`
	MaxTurns int    `envconfig:"SESSION_MAX_TURNS" default:"5"`
}
