package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Database types accepted in DATABASE_TYPE
const (
	DatabaseSQLite    = "sqlite"
	DatabaseSnowflake = "snowflake"
	DatabaseMSSQL     = "mssql"
	DatabaseODBC      = "odbc"
)

// Engine kinds accepted in VANNA_ENGINE
const (
	EngineRemote = "remote"
	EngineLocal  = "local"
)

// Config represents the application configuration
type Config struct {
	Vanna    VannaConfig    `yaml:"vanna"`
	LLM      LLMConfig      `yaml:"llm" envPrefix:"LLM_"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Server   ServerConfig   `yaml:"server"`
	LogLevel string         `yaml:"log_level" env:"LOG_LEVEL"`
}

// VannaConfig selects and configures the NL to SQL engine
type VannaConfig struct {
	Engine         string `yaml:"engine" env:"VANNA_ENGINE"` // remote, local
	Model          string `yaml:"model" env:"VANNA_MODEL"`
	APIKey         string `yaml:"-" env:"VANNA_API_KEY"`
	Endpoint       string `yaml:"endpoint" env:"VANNA_ENDPOINT"`
	TrainingDBPath string `yaml:"training_db_path" env:"TRAINING_DB_PATH"`
}

// LLMConfig configures the model provider used by the local engine
type LLMConfig struct {
	Provider string `yaml:"provider" env:"PROVIDER"` // openai, anthropic, google, ollama, perplexity
	Model    string `yaml:"model" env:"MODEL"`
	APIKey   string `yaml:"-" env:"API_KEY"`
	BaseURL  string `yaml:"base_url,omitempty" env:"BASE_URL"`
}

// DatabaseConfig represents the queried database
type DatabaseConfig struct {
	Type                 string          `yaml:"type" env:"DATABASE_TYPE"` // sqlite, snowflake, mssql
	URL                  string          `yaml:"url,omitempty" env:"DATABASE_URL"`
	ODBCConnectionString string          `yaml:"-" env:"ODBC_CONNECTION_STRING"`
	Snowflake            SnowflakeConfig `yaml:"snowflake,omitempty" envPrefix:"SNOWFLAKE_"`
}

// SnowflakeConfig holds Snowflake account credentials
type SnowflakeConfig struct {
	Account   string `yaml:"account,omitempty" env:"ACCOUNT"`
	Username  string `yaml:"username,omitempty" env:"USERNAME"`
	Password  string `yaml:"-" env:"PASSWORD"`
	Database  string `yaml:"database,omitempty" env:"DATABASE"`
	Warehouse string `yaml:"warehouse,omitempty" env:"WAREHOUSE"`
}

// CacheConfig represents the question cache backend
type CacheConfig struct {
	Provider  string        `yaml:"provider" env:"CACHE_PROVIDER"` // memory, mongodb
	URI       string        `yaml:"uri,omitempty" env:"MONGODB_URI"`
	Database  string        `yaml:"database,omitempty" env:"MONGODB_DATABASE"`
	TTL       time.Duration `yaml:"ttl" env:"CACHE_TTL"`
	SweepCron string        `yaml:"sweep_cron" env:"CACHE_SWEEP_CRON"`
}

// ServerConfig represents the HTTP server settings
type ServerConfig struct {
	Host           string  `yaml:"host" env:"HOST"`
	Port           string  `yaml:"port" env:"PORT"`
	CORSOrigin     string  `yaml:"cors_origin" env:"CORS_ORIGIN"`
	APIKey         string  `yaml:"-" env:"API_KEY"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	StaticDir      string  `yaml:"static_dir,omitempty" env:"STATIC_DIR"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Vanna: VannaConfig{
			Engine:         EngineRemote,
			Endpoint:       "https://ask.vanna.ai/rpc",
			TrainingDBPath: "askdb-training.db",
		},
		LLM: LLMConfig{
			Provider: "openai",
		},
		Cache: CacheConfig{
			Provider:  "memory",
			URI:       "mongodb://localhost:27017",
			Database:  "askdb",
			TTL:       24 * time.Hour,
			SweepCron: "@every 10m",
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           "5000",
			CORSOrigin:     "*",
			RateLimitBurst: 20,
		},
		LogLevel: "INFO",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence. A .env file in the working
// directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := DefaultConfig()

	if path != "" && Exists(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return config, nil
}

// Validate reports every required setting that is missing for the selected
// engine and database type
func (c *Config) Validate() error {
	var missing []string

	switch c.Vanna.Engine {
	case EngineRemote:
		if c.Vanna.Model == "" {
			missing = append(missing, "VANNA_MODEL")
		}
		if c.Vanna.APIKey == "" {
			missing = append(missing, "VANNA_API_KEY")
		}
	case EngineLocal:
		if c.LLM.Model == "" {
			missing = append(missing, "LLM_MODEL")
		}
		if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
			missing = append(missing, "LLM_API_KEY")
		}
	default:
		return fmt.Errorf("unsupported engine: [%s]", c.Vanna.Engine)
	}

	switch c.Database.Type {
	case DatabaseSQLite:
		if c.Database.URL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case DatabaseSnowflake:
		sf := c.Database.Snowflake
		for name, value := range map[string]string{
			"SNOWFLAKE_ACCOUNT":   sf.Account,
			"SNOWFLAKE_USERNAME":  sf.Username,
			"SNOWFLAKE_PASSWORD":  sf.Password,
			"SNOWFLAKE_DATABASE":  sf.Database,
			"SNOWFLAKE_WAREHOUSE": sf.Warehouse,
		} {
			if value == "" {
				missing = append(missing, name)
			}
		}
	case DatabaseMSSQL, DatabaseODBC:
		if c.Database.ODBCConnectionString == "" {
			missing = append(missing, "ODBC_CONNECTION_STRING")
		}
	default:
		return fmt.Errorf("unsupported database type: [%s]", c.Database.Type)
	}

	if c.Cache.Provider != "memory" && c.Cache.Provider != "mongodb" {
		return fmt.Errorf("unsupported cache provider: [%s]", c.Cache.Provider)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	if p := os.Getenv("ASKDB_CONFIG_PATH"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".askdb/config.yaml"
	}
	return filepath.Join(home, ".askdb", "config.yaml")
}

// Exists checks if config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
