package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/AI2HU/askdb/internal/llm"
	"github.com/AI2HU/askdb/internal/models"
)

// DefaultBaseURL is where a local Ollama listens
const DefaultBaseURL = "http://localhost:11434"

// Provider implements the LLM Provider interface for Ollama
type Provider struct {
	client *api.Client
}

// New creates a new Ollama provider
func New(baseURL string) (*Provider, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}
	return &Provider{
		client: api.NewClient(u, &http.Client{Timeout: 120 * time.Second}),
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "ollama"
}

// Generate sends the chat to Ollama and returns the response
func (p *Provider) Generate(ctx context.Context, messages []llm.Message, config llm.Config) (*llm.Response, error) {
	startTime := time.Now()

	model := "llama3"
	if config.Model != "" {
		model = config.Model
	}

	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: fromMessages(messages),
		Stream:   &stream,
		Options:  map[string]any{},
	}
	if config.Temperature > 0 {
		req.Options["temperature"] = config.Temperature
	}
	if config.TopP > 0 {
		req.Options["top_p"] = config.TopP
	}
	if config.TopK > 0 {
		req.Options["top_k"] = config.TopK
	}
	if config.MaxTokens > 0 {
		req.Options["num_predict"] = config.MaxTokens
	}

	var out strings.Builder
	var final api.ChatResponse
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		if resp.Done {
			final = resp
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}

	return &llm.Response{
		Text:       out.String(),
		TokensUsed: final.PromptEvalCount + final.EvalCount,
		LatencyMs:  time.Since(startTime).Milliseconds(),
		Model:      model,
		Provider:   "ollama",
	}, nil
}

// ListModels lists the locally pulled text models
func (p *Provider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	resp, err := p.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var list []models.ModelInfo
	for _, m := range resp.Models {
		name := strings.ToLower(m.Name)
		if strings.Contains(name, "embed") || strings.Contains(name, "vision") || strings.Contains(name, "clip") {
			continue
		}
		list = append(list, models.ModelInfo{
			ID:          m.Name,
			Name:        m.Name,
			Description: fmt.Sprintf("Ollama %s (%.2f GB)", m.Name, float64(m.Size)/(1024*1024*1024)),
		})
	}
	return list, nil
}

func fromMessages(input []llm.Message) []api.Message {
	messages := make([]api.Message, 0, len(input))
	for _, msg := range input {
		messages = append(messages, api.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return messages
}
