package session

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/trade-chatbot/server/internal/conversation"
)

type fakeRepo struct {
	states   map[string]conversation.State
	messages map[string][]*schema.Message
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		states:   map[string]conversation.State{},
		messages: map[string][]*schema.Message{},
	}
}

func (f *fakeRepo) LoadState(_ context.Context, id string) (conversation.State, bool, error) {
	s, ok := f.states[id]
	return s, ok, nil
}

func (f *fakeRepo) SaveState(_ context.Context, id string, s conversation.State) error {
	f.states[id] = s
	return nil
}

func (f *fakeRepo) AddMessage(_ context.Context, id string, m *schema.Message) error {
	f.messages[id] = append(f.messages[id], m)
	return nil
}

func (f *fakeRepo) LoadHistory(_ context.Context, id string) ([]*schema.Message, error) {
	return f.messages[id], nil
}

func (f *fakeRepo) Clear(_ context.Context, id string) error {
	delete(f.states, id)
	delete(f.messages, id)
	return nil
}

func TestManagerContextFreshSession(t *testing.T) {
	m := NewManager(newFakeRepo(), 5)
	got, err := m.Context(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("fresh session context = %q, want empty", got)
	}
}

func TestManagerContextRendersRecentTurns(t *testing.T) {
	repo := newFakeRepo()
	m := NewManager(repo, 2)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		if err := m.RecordTurn(ctx, "s1", fmt.Sprintf("асуулт %d", i), fmt.Sprintf("хариулт %d", i)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := m.Context(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "<conversation_context>") || !strings.HasSuffix(got, "</conversation_context>") {
		t.Errorf("context block malformed: %q", got)
	}
	if strings.Contains(got, "асуулт 2") {
		t.Errorf("old turns must be trimmed: %q", got)
	}
	for _, want := range []string{"UserMessage(асуулт 3)", "AssistantMessage(хариулт 3)", "UserMessage(асуулт 4)", "AssistantMessage(хариулт 4)"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}

func TestManagerRecordTurnRoles(t *testing.T) {
	repo := newFakeRepo()
	m := NewManager(repo, 5)

	if err := m.RecordTurn(context.Background(), "s1", "асуулт", "хариулт"); err != nil {
		t.Fatal(err)
	}
	msgs := repo.messages["s1"]
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != schema.User || msgs[1].Role != schema.Assistant {
		t.Errorf("roles = %s, %s", msgs[0].Role, msgs[1].Role)
	}
}
