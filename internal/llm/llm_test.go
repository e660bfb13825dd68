package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubProvider struct{ name string }

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) Generate(ctx context.Context, messages []Message, config Config) (*Response, error) {
	return &Response{Text: "ok", Provider: s.name}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("openai", stubProvider{"openai"})
	r.Register("anthropic", stubProvider{"anthropic"})

	p, ok := r.Get("openai")
	require.True(t, ok)
	require.Equal(t, "openai", p.Name())

	_, ok = r.Get("cohere")
	require.False(t, ok)

	require.Equal(t, []string{"anthropic", "openai"}, r.Names())
}

func TestSplitSystem(t *testing.T) {
	system, rest := SplitSystem([]Message{
		SystemMessage("You are a SQLite expert."),
		UserMessage("How many albums?"),
		SystemMessage("Be brief."),
		AssistantMessage("SELECT COUNT(*) FROM albums;"),
	})
	require.Equal(t, "You are a SQLite expert.\n\nBe brief.", system)
	require.Equal(t, []Message{
		{Role: RoleUser, Content: "How many albums?"},
		{Role: RoleAssistant, Content: "SELECT COUNT(*) FROM albums;"},
	}, rest)
}
