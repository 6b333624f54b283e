package session

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/trade-chatbot/server/internal/conversation"
)

// Manager wraps the repository with the turn-history policy: how many recent
// turns feed back into prompts, and how each turn is recorded.
type Manager struct {
	repo     Repository
	maxTurns int
}

func NewManager(repo Repository, maxTurns int) *Manager {
	if maxTurns <= 0 {
		maxTurns = 5
	}
	return &Manager{repo: repo, maxTurns: maxTurns}
}

func (m *Manager) LoadState(ctx context.Context, sessionID string) (conversation.State, bool, error) {
	return m.repo.LoadState(ctx, sessionID)
}

func (m *Manager) SaveState(ctx context.Context, sessionID string, state conversation.State) error {
	return m.repo.SaveState(ctx, sessionID, state)
}

func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	return m.repo.Clear(ctx, sessionID)
}

// RecordTurn appends the user question and the final answer to the session
// history.
func (m *Manager) RecordTurn(ctx context.Context, sessionID, question, answer string) error {
	if err := m.repo.AddMessage(ctx, sessionID, schema.UserMessage(question)); err != nil {
		return err
	}
	return m.repo.AddMessage(ctx, sessionID, schema.AssistantMessage(answer, nil))
}

// Context renders the recent turns as a tagged block for the intent prompt.
// Returns "" for a fresh session.
func (m *Manager) Context(ctx context.Context, sessionID string) (string, error) {
	history, err := m.repo.LoadHistory(ctx, sessionID)
	if err != nil {
		return "", err
	}
	recent := trimTail(history, m.maxTurns*2)
	if len(recent) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("<conversation_context>\n")
	for _, msg := range recent {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			b.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			b.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	b.WriteString("</conversation_context>")
	return b.String(), nil
}

func trimTail(messages []*schema.Message, max int) []*schema.Message {
	if len(messages) <= max {
		return messages
	}
	return messages[len(messages)-max:]
}
