package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/AI2HU/askdb/internal/llm"
	"github.com/AI2HU/askdb/internal/models"
)

// Provider implements the LLM Provider interface for Anthropic
type Provider struct {
	client anthropic.Client
}

// New creates a new Anthropic provider
func New(apiKey, baseURL string) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(baseURL, "/v1")))
	}
	return &Provider{client: anthropic.NewClient(opts...)}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "anthropic"
}

// Generate sends the chat to the messages API and returns the response
func (p *Provider) Generate(ctx context.Context, messages []llm.Message, config llm.Config) (*llm.Response, error) {
	startTime := time.Now()

	model := "claude-3-7-sonnet-20250219"
	if config.Model != "" {
		model = config.Model
	}

	maxTokens := int64(4096)
	if config.MaxTokens > 0 {
		maxTokens = int64(config.MaxTokens)
	}

	system, conversation := fromMessages(messages)
	body := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		System:    system,
		Messages:  conversation,
	}
	if config.Temperature > 0 {
		body.Temperature = anthropic.Float(config.Temperature)
	}
	if config.TopP > 0 {
		body.TopP = anthropic.Float(config.TopP)
	}

	msg, err := p.client.Messages.New(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &llm.Response{
		Text:       text.String(),
		TokensUsed: int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		LatencyMs:  time.Since(startTime).Milliseconds(),
		Model:      string(msg.Model),
		Provider:   "anthropic",
	}, nil
}

// ListModels lists the available Claude models
func (p *Provider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	page, err := p.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	list := make([]models.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		list = append(list, models.ModelInfo{
			ID:          m.ID,
			Name:        m.DisplayName,
			Description: fmt.Sprintf("Anthropic %s", m.DisplayName),
		})
	}
	return list, nil
}

func fromMessages(input []llm.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam
	for _, msg := range input {
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case llm.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return system, messages
}
