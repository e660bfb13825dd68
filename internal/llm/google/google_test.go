package google

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/AI2HU/askdb/internal/llm"
)

func TestFromMessages(t *testing.T) {
	system, contents := fromMessages([]llm.Message{
		llm.SystemMessage("You are a SQLite expert."),
		llm.UserMessage("How many albums?"),
		llm.AssistantMessage("SELECT COUNT(*) FROM albums;"),
		llm.UserMessage("And artists?"),
	})

	require.NotNil(t, system)
	require.Equal(t, "You are a SQLite expert.", system.Parts[0].Text)

	require.Len(t, contents, 3)
	require.Equal(t, string(genai.RoleUser), contents[0].Role)
	require.Equal(t, string(genai.RoleModel), contents[1].Role)
	require.Equal(t, "And artists?", contents[2].Parts[0].Text)
}

func TestFromMessagesWithoutSystem(t *testing.T) {
	system, contents := fromMessages([]llm.Message{llm.UserMessage("hi")})
	require.Nil(t, system)
	require.Len(t, contents, 1)
}
