package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/AI2HU/askdb/internal/llm"
	"github.com/AI2HU/askdb/internal/models"
)

// PerplexityBaseURL is the OpenAI compatible Perplexity endpoint
const PerplexityBaseURL = "https://api.perplexity.ai"

// Provider implements the LLM Provider interface for OpenAI and OpenAI
// compatible APIs
type Provider struct {
	name   string
	client openai.Client
}

// New creates a new OpenAI provider
func New(apiKey, baseURL string) *Provider {
	return newProvider("openai", apiKey, baseURL)
}

// NewPerplexity creates a provider talking to Perplexity
func NewPerplexity(apiKey, baseURL string) *Provider {
	if baseURL == "" {
		baseURL = PerplexityBaseURL
	}
	return newProvider("perplexity", apiKey, baseURL)
}

func newProvider(name, apiKey, baseURL string) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Provider{
		name:   name,
		client: openai.NewClient(opts...),
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return p.name
}

// Generate sends the chat to the completions API and returns the response
func (p *Provider) Generate(ctx context.Context, messages []llm.Message, config llm.Config) (*llm.Response, error) {
	startTime := time.Now()

	model := "gpt-4o-mini"
	if config.Model != "" {
		model = config.Model
	}

	body := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: fromMessages(messages),
	}
	if config.Temperature > 0 {
		body.Temperature = openai.Float(config.Temperature)
	}
	if config.TopP > 0 {
		body.TopP = openai.Float(config.TopP)
	}
	if config.MaxTokens > 0 {
		body.MaxTokens = openai.Int(int64(config.MaxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from %s API", p.name)
	}

	return &llm.Response{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: int(resp.Usage.TotalTokens),
		LatencyMs:  time.Since(startTime).Milliseconds(),
		Model:      resp.Model,
		Provider:   p.name,
	}, nil
}

// ListModels lists the chat models of the account
func (p *Provider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var list []models.ModelInfo
	for _, m := range page.Data {
		id := strings.ToLower(m.ID)
		if !strings.HasPrefix(id, "gpt-") && !strings.HasPrefix(id, "o") {
			continue
		}
		// fine-tuned and non text models
		if strings.Contains(m.ID, ":") || strings.Contains(id, "embed") ||
			strings.Contains(id, "audio") || strings.Contains(id, "image") || strings.Contains(id, "tts") {
			continue
		}
		list = append(list, models.ModelInfo{
			ID:          m.ID,
			Name:        m.ID,
			Description: fmt.Sprintf("OpenAI %s", m.ID),
		})
	}
	return list, nil
}

func fromMessages(input []llm.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(input))
	for _, msg := range input {
		switch msg.Role {
		case llm.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case llm.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	return messages
}
