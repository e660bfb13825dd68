package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AI2HU/askdb/internal/llm"
)

func TestGenerate(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Stream   bool   `json:"stream"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"SELECT 1;"},"done":true,"prompt_eval_count":5,"eval_count":4}` + "\n"))
	}))
	defer srv.Close()

	p, err := New(srv.URL)
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), []llm.Message{
		llm.SystemMessage("You are a SQLite expert."),
		llm.UserMessage("one"),
	}, llm.Config{Model: "llama3"})
	require.NoError(t, err)
	require.Equal(t, "SELECT 1;", resp.Text)
	require.Equal(t, 9, resp.TokensUsed)
	require.Equal(t, "ollama", resp.Provider)

	require.Equal(t, "llama3", got.Model)
	require.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "system", got.Messages[0].Role)
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"models":[{"name":"llama3:latest","size":4000000000},{"name":"nomic-embed-text:latest","size":1000}]}`))
	}))
	defer srv.Close()

	p, err := New(srv.URL)
	require.NoError(t, err)

	list, err := p.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "llama3:latest", list[0].ID)
}
