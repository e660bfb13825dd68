package vanna

import (
	"context"

	"github.com/AI2HU/askdb/internal/llm"
	"github.com/AI2HU/askdb/internal/logger"
)

// ProviderLLM submits prompts to an llm.Provider
type ProviderLLM struct {
	provider llm.Provider
	config   llm.Config
}

// NewProviderLLM wraps provider, generating with config
func NewProviderLLM(provider llm.Provider, config llm.Config) *ProviderLLM {
	return &ProviderLLM{provider: provider, config: config}
}

// SubmitPrompt completes the chat and returns the model text
func (p *ProviderLLM) SubmitPrompt(ctx context.Context, messages []llm.Message) (string, error) {
	resp, err := p.provider.Generate(ctx, messages, p.config)
	if err != nil {
		return "", err
	}
	logger.Debug("%s/%s answered in %dms using %d tokens", resp.Provider, resp.Model, resp.LatencyMs, resp.TokensUsed)
	return resp.Text, nil
}
