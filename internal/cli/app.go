package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/AI2HU/askdb/internal/cache"
	"github.com/AI2HU/askdb/internal/config"
	"github.com/AI2HU/askdb/internal/db"
	"github.com/AI2HU/askdb/internal/llm"
	"github.com/AI2HU/askdb/internal/llm/anthropic"
	"github.com/AI2HU/askdb/internal/llm/google"
	"github.com/AI2HU/askdb/internal/llm/ollama"
	"github.com/AI2HU/askdb/internal/llm/openai"
	"github.com/AI2HU/askdb/internal/logger"
	"github.com/AI2HU/askdb/internal/services"
	"github.com/AI2HU/askdb/internal/vanna"
)

// app holds everything a command needs, wired from the configuration
type app struct {
	runner     db.Runner
	assistant  *vanna.Assistant
	localStore *vanna.LocalStore
	cache      cache.Store

	questions *services.QuestionService
	training  *services.TrainingService
}

// newProvider creates the model provider the local engine generates with
func newProvider(c config.LLMConfig) (llm.Provider, error) {
	registry := llm.NewRegistry()
	registry.Register("openai", openai.New(c.APIKey, c.BaseURL))
	registry.Register("perplexity", openai.NewPerplexity(c.APIKey, c.BaseURL))
	registry.Register("anthropic", anthropic.New(c.APIKey, c.BaseURL))
	registry.Register("google", google.New(c.APIKey, c.BaseURL))

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	ollamaProvider, err := ollama.New(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama provider: %w", err)
	}
	registry.Register("ollama", ollamaProvider)

	provider, ok := registry.Get(c.Provider)
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s (must be one of: %s)", c.Provider, strings.Join(registry.Names(), ", "))
	}
	return provider, nil
}

// newApp connects the database and builds the engine. The question cache is
// only created when withCache is set.
func newApp(ctx context.Context, cfg *config.Config, withCache bool) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runner, err := db.New(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := runner.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Database.Type, err)
	}
	logger.Info("Connected to [%s] database %s", cfg.Database.Type, databaseName(cfg.Database))

	a := &app{runner: runner}

	switch cfg.Vanna.Engine {
	case config.EngineLocal:
		store, err := vanna.OpenLocalStore(cfg.Vanna.TrainingDBPath)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.localStore = store

		provider, err := newProvider(cfg.LLM)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		model := vanna.NewProviderLLM(provider, llm.Config{Model: cfg.LLM.Model, Temperature: 0.7})
		a.assistant = vanna.New(store, model, runner.Dialect())
		logger.Info("Using local engine with %s model %s", provider.Name(), cfg.LLM.Model)
	default:
		client := vanna.NewRemoteClient(cfg.Vanna.Model, cfg.Vanna.APIKey, vanna.WithEndpoint(cfg.Vanna.Endpoint))
		a.assistant = vanna.New(client, client, runner.Dialect())
		logger.Info("Using hosted engine with model %s", cfg.Vanna.Model)
	}

	if withCache {
		store, err := newCache(ctx, cfg.Cache)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.cache = store
	} else {
		a.cache = cache.NewMemory()
	}

	a.questions = services.NewQuestionService(a.assistant, runner, a.cache)
	a.training = services.NewTrainingService(a.assistant)
	return a, nil
}

func newCache(ctx context.Context, c config.CacheConfig) (cache.Store, error) {
	switch c.Provider {
	case "mongodb":
		store := cache.NewMongoDB(c.URI, c.Database)
		if err := store.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to question cache: %w", err)
		}
		logger.Info("Using MongoDB question cache %s/%s", c.URI, c.Database)
		return store, nil
	default:
		return cache.NewMemory(), nil
	}
}

func databaseName(c config.DatabaseConfig) string {
	switch c.Type {
	case config.DatabaseSnowflake:
		return c.Snowflake.Account + "/" + c.Snowflake.Database
	case config.DatabaseMSSQL, config.DatabaseODBC:
		return "(ODBC connection string)"
	default:
		return c.URL
	}
}

func (a *app) close(ctx context.Context) {
	if a.cache != nil {
		if err := a.cache.Close(ctx); err != nil {
			logger.Warning("Failed to close question cache: %v", err)
		}
	}
	if a.localStore != nil {
		if err := a.localStore.Close(); err != nil {
			logger.Warning("Failed to close training store: %v", err)
		}
	}
	if a.runner != nil {
		if err := a.runner.Disconnect(ctx); err != nil {
			logger.Warning("Failed to disconnect database: %v", err)
		}
	}
}
