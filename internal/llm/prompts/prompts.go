package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/intent_prompt.txt
var intentPrompt string

//go:embed template/smalltalk_prompt.txt
var smalltalkPrompt string

//go:embed template/explain_prompt.txt
var explainPrompt string

// render pushes the final text through the Eino prompt component so prompt
// callbacks fire, and returns the rendered string.
func render(ctx context.Context, content string) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}

// RenderIntent builds the intent extraction prompt for a question, with the
// recent conversation context inlined when the session has prior turns.
func RenderIntent(ctx context.Context, question, conversationContext string) (string, error) {
	content := strings.NewReplacer(
		"{question}", question,
		"{context}", conversationContext,
	).Replace(intentPrompt)
	return render(ctx, content)
}

// RenderSmalltalk builds the prompt answering a non-analytic message.
func RenderSmalltalk(ctx context.Context, question string) (string, error) {
	content := strings.NewReplacer("{question}", question).Replace(smalltalkPrompt)
	return render(ctx, content)
}

// RenderExplanation builds the prompt asking the model to narrate a result
// payload (question, intent, query metadata, normalized result, row preview)
// serialized as JSON.
func RenderExplanation(ctx context.Context, payloadJSON string) (string, error) {
	content := strings.NewReplacer("{payload}", payloadJSON).Replace(explainPrompt)
	return render(ctx, content)
}
