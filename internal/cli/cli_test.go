package cli

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AI2HU/askdb/internal/config"
	"github.com/AI2HU/askdb/internal/models"
)

func TestValidateSelection(t *testing.T) {
	n, err := validateSelection("2", 3)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	for _, input := range []string{"", "0", "4", "two"} {
		_, err := validateSelection(input, 3)
		require.Error(t, err, input)
	}
}

func TestValidateChoice(t *testing.T) {
	options := []string{"memory", "mongodb"}

	got, err := validateChoice("", options, "memory")
	require.NoError(t, err)
	require.Equal(t, "memory", got)

	got, err = validateChoice(" MongoDB ", options, "memory")
	require.NoError(t, err)
	require.Equal(t, "mongodb", got)

	_, err = validateChoice("redis", options, "memory")
	require.EqualError(t, err, "invalid choice: redis (must be one of: memory, mongodb)")
}

func TestValidateCronExpression(t *testing.T) {
	for _, expr := range []string{"@every 10m", "*/5 * * * *", "@hourly"} {
		_, err := validateCronExpression(expr)
		require.NoError(t, err, expr)
	}
	_, err := validateCronExpression("every ten minutes")
	require.Error(t, err)
}

func TestValidateDuration(t *testing.T) {
	d, err := validateDuration("24h")
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, d)

	_, err = validateDuration("-1h")
	require.Error(t, err)
	_, err = validateDuration("tomorrow")
	require.Error(t, err)
}

func TestValidatePortAndBaseURL(t *testing.T) {
	_, err := validatePort("5000")
	require.NoError(t, err)
	_, err = validatePort("70000")
	require.Error(t, err)

	u, err := validateBaseURL("")
	require.NoError(t, err)
	require.Empty(t, u)
	_, err = validateBaseURL("localhost:11434")
	require.Error(t, err)
}

func TestMaskSensitiveData(t *testing.T) {
	require.Equal(t, "(not set)", maskSensitiveData("", "*"))
	require.Equal(t, "***", maskSensitiveData("short", "*"))
	require.Equal(t, "sk-1...cdef", maskSensitiveData("sk-1234567890abcdef", "*"))
}

func TestPromptWithRetry(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("redis\nmongodb\n"))
	got, err := promptChoice(reader, "> ", []string{"memory", "mongodb"}, "memory")
	require.NoError(t, err)
	require.Equal(t, "mongodb", got)

	_, err = promptRequired(bufio.NewReader(strings.NewReader("")), "> ")
	require.Error(t, err)
}

func TestReadTrainingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- question: How many customers are there?
  sql: SELECT COUNT(*) FROM customers
- ddl: CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT)
- documentation: Revenue is reported in euros
`), 0o600))

	reqs, err := readTrainingFile(path)
	require.NoError(t, err)
	require.Equal(t, []models.TrainingRequest{
		{Question: "How many customers are there?", SQL: "SELECT COUNT(*) FROM customers"},
		{DDL: "CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT)"},
		{Documentation: "Revenue is reported in euros"},
	}, reqs)

	require.NoError(t, os.WriteFile(path, []byte("- {}\n"), 0o600))
	_, err = readTrainingFile(path)
	require.EqualError(t, err, "training item 1 is empty")
}

func TestNewProvider(t *testing.T) {
	for _, name := range []string{"openai", "anthropic", "google", "ollama", "perplexity"} {
		p, err := newProvider(config.LLMConfig{Provider: name, APIKey: "key"})
		require.NoError(t, err, name)
		require.Equal(t, name, p.Name())
	}

	_, err := newProvider(config.LLMConfig{Provider: "mistral"})
	require.ErrorContains(t, err, "unsupported LLM provider: mistral")
}

func TestDatabaseName(t *testing.T) {
	require.Equal(t, "chinook.sqlite", databaseName(config.DatabaseConfig{Type: config.DatabaseSQLite, URL: "chinook.sqlite"}))
	require.Equal(t, "acct/SALES", databaseName(config.DatabaseConfig{
		Type:      config.DatabaseSnowflake,
		Snowflake: config.SnowflakeConfig{Account: "acct", Database: "SALES"},
	}))
}
