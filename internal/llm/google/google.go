package google

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/AI2HU/askdb/internal/llm"
	"github.com/AI2HU/askdb/internal/models"
)

// Provider implements the LLM Provider interface for Google AI
type Provider struct {
	apiKey  string
	baseURL string

	mu     sync.Mutex
	client *genai.Client
}

// New creates a new Google provider. The client is created on first use.
func New(apiKey, baseURL string) *Provider {
	return &Provider{
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "google"
}

func (p *Provider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google client: %w", err)
	}
	p.client = client
	return client, nil
}

// Generate sends the chat to Google AI and returns the response
func (p *Provider) Generate(ctx context.Context, messages []llm.Message, config llm.Config) (*llm.Response, error) {
	startTime := time.Now()

	model := "gemini-2.0-flash"
	if config.Model != "" {
		model = config.Model
	}

	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	system, contents := fromMessages(messages)

	generationConfig := &genai.GenerateContentConfig{}
	if system != nil {
		generationConfig.SystemInstruction = system
	}
	if config.Temperature > 0 {
		generationConfig.Temperature = float32Ptr(float32(config.Temperature))
	}
	if config.TopP > 0 {
		generationConfig.TopP = float32Ptr(float32(config.TopP))
	}
	if config.TopK > 0 {
		generationConfig.TopK = float32Ptr(float32(config.TopK))
	}
	if config.MaxTokens > 0 {
		generationConfig.MaxOutputTokens = int32(config.MaxTokens)
	}

	result, err := client.Models.GenerateContent(ctx, model, contents, generationConfig)
	if err != nil {
		return nil, fmt.Errorf("Google AI API error: %w", err)
	}

	tokensUsed := 0
	if result.UsageMetadata != nil {
		tokensUsed = int(result.UsageMetadata.TotalTokenCount)
	}

	return &llm.Response{
		Text:       result.Text(),
		TokensUsed: tokensUsed,
		LatencyMs:  time.Since(startTime).Milliseconds(),
		Model:      model,
		Provider:   "google",
	}, nil
}

// ListModels lists available Gemini models
func (p *Provider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	page, err := client.Models.List(ctx, &genai.ListModelsConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var list []models.ModelInfo
	for _, m := range page.Items {
		name := strings.ToLower(m.Name)
		if !strings.Contains(name, "gemini") || strings.Contains(name, "embed") || strings.Contains(name, "image") {
			continue
		}
		list = append(list, models.ModelInfo{
			ID:          m.Name,
			Name:        strings.TrimPrefix(m.Name, "models/"),
			Description: m.Description,
		})
	}
	return list, nil
}

// fromMessages maps the chat onto Gemini contents; assistant turns use the
// "model" role and system messages become the system instruction
func fromMessages(input []llm.Message) (*genai.Content, []*genai.Content) {
	systemText, rest := llm.SplitSystem(input)

	var system *genai.Content
	if systemText != "" {
		system = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	contents := make([]*genai.Content, 0, len(rest))
	for _, msg := range rest {
		var role genai.Role = genai.RoleUser
		if msg.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return system, contents
}

func float32Ptr(f float32) *float32 {
	return &f
}
