package llm

import (
	"context"
	"sort"
	"sync"

	"github.com/AI2HU/askdb/internal/models"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat prompt
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system message
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Config holds generation settings. Zero values leave the provider default.
type Config struct {
	Model       string
	Temperature float64
	TopP        float64
	TopK        int
	MaxTokens   int
}

// Response is a completed generation
type Response struct {
	Text       string
	TokensUsed int
	LatencyMs  int64
	Model      string
	Provider   string
}

// Provider generates chat completions
type Provider interface {
	Name() string
	Generate(ctx context.Context, messages []Message, config Config) (*Response, error)
}

// ModelLister is implemented by providers that can enumerate their models
type ModelLister interface {
	ListModels(ctx context.Context) ([]models.ModelInfo, error)
}

// Registry holds the available providers by name
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under name, replacing any previous one
func (r *Registry) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider
}

// Get returns the provider registered under name
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SplitSystem separates system messages, joined by blank lines, from the
// conversation, for APIs that take the system prompt out of band
func SplitSystem(messages []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
