package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AI2HU/askdb/internal/config"
	"github.com/AI2HU/askdb/internal/db"
	"github.com/AI2HU/askdb/internal/llm"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize askdb configuration",
	Long:  `Interactive wizard to set up the engine, the database and the question cache.`,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println(FormatHeader("Welcome to askdb setup"))
	fmt.Println(FormatHeader("======================"))
	fmt.Println()

	configPath := cfgFile
	if configPath == "" {
		configPath = config.GetConfigPath()
	}
	if config.Exists(configPath) {
		fmt.Printf("Configuration file already exists at: %s\n", configPath)
		confirmed, err := promptYesNo(reader, "Do you want to overwrite it? (y/N): ")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	c := config.DefaultConfig()
	if err := initEngine(reader, c); err != nil {
		return err
	}
	if err := initDatabase(reader, c); err != nil {
		return err
	}
	if err := initCache(reader, c); err != nil {
		return err
	}

	port, err := promptWithRetry(reader, fmt.Sprintf("Server port [%s]: ", c.Server.Port), func(input string) (string, error) {
		if input == "" {
			return c.Server.Port, nil
		}
		return validatePort(input)
	})
	if err != nil {
		return err
	}
	c.Server.Port = port

	fmt.Println("\nSaving configuration...")
	if err := c.Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Println(FormatSuccess("Configuration saved to: " + configPath))

	printSummary(c)
	return nil
}

func initEngine(reader *bufio.Reader, c *config.Config) error {
	fmt.Println("\n" + FormatTitle("Engine"))
	fmt.Println("--------")

	engine, err := promptChoice(reader, "Engine (remote/local) [remote]: ", []string{config.EngineRemote, config.EngineLocal}, config.EngineRemote)
	if err != nil {
		return err
	}
	c.Vanna.Engine = engine

	if engine == config.EngineRemote {
		if c.Vanna.Model, err = promptRequired(reader, "Vanna model name: "); err != nil {
			return err
		}
		c.Vanna.Endpoint, err = promptOptional(reader, fmt.Sprintf("Endpoint [%s]: ", c.Vanna.Endpoint), c.Vanna.Endpoint)
		return err
	}

	providers := []string{"openai", "anthropic", "google", "ollama", "perplexity"}
	if c.LLM.Provider, err = promptChoice(reader, "LLM provider (openai/anthropic/google/ollama/perplexity) [openai]: ", providers, "openai"); err != nil {
		return err
	}
	if c.LLM.BaseURL, err = promptWithRetry(reader, "Base URL (empty for the provider default): ", validateBaseURL); err != nil {
		return err
	}
	c.LLM.APIKey = os.Getenv("LLM_API_KEY")

	model, err := chooseModel(reader, c.LLM)
	if err != nil {
		return err
	}
	c.LLM.Model = model

	c.Vanna.TrainingDBPath, err = promptOptional(reader, fmt.Sprintf("Training database path [%s]: ", c.Vanna.TrainingDBPath), c.Vanna.TrainingDBPath)
	return err
}

// chooseModel offers the provider's models when they can be listed
func chooseModel(reader *bufio.Reader, c config.LLMConfig) (string, error) {
	provider, err := newProvider(c)
	if err != nil {
		return "", err
	}

	if lister, ok := provider.(llm.ModelLister); ok && (c.APIKey != "" || c.Provider == "ollama") {
		fmt.Println(FormatDim("Fetching available models..."))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		available, err := lister.ListModels(ctx)
		if err != nil {
			fmt.Println(FormatWarning("Could not list models: " + err.Error()))
		} else if len(available) > 0 {
			for i, m := range available {
				fmt.Printf("  %s %s\n", FormatCount(i+1), m.Name)
			}
			choice, err := promptWithRetry(reader, "Model number: ", func(input string) (string, error) {
				n, err := validateSelection(input, len(available))
				if err != nil {
					return "", err
				}
				return strconv.Itoa(n), nil
			})
			if err != nil {
				return "", err
			}
			n, _ := strconv.Atoi(choice)
			return available[n-1].ID, nil
		}
	}

	return promptRequired(reader, "Model name: ")
}

func initDatabase(reader *bufio.Reader, c *config.Config) error {
	fmt.Println("\n" + FormatTitle("Database"))
	fmt.Println("----------")

	types := []string{config.DatabaseSQLite, config.DatabaseSnowflake, config.DatabaseMSSQL}
	dbType, err := promptChoice(reader, "Database type (sqlite/snowflake/mssql) [sqlite]: ", types, config.DatabaseSQLite)
	if err != nil {
		return err
	}
	c.Database.Type = dbType

	switch dbType {
	case config.DatabaseSQLite:
		if c.Database.URL, err = promptRequired(reader, "Database path or URL: "); err != nil {
			return err
		}
		return testConnection(c.Database)
	case config.DatabaseSnowflake:
		sf := &c.Database.Snowflake
		for _, field := range []struct {
			label string
			value *string
		}{
			{"Account: ", &sf.Account},
			{"Username: ", &sf.Username},
			{"Database: ", &sf.Database},
			{"Warehouse: ", &sf.Warehouse},
		} {
			if *field.value, err = promptRequired(reader, field.label); err != nil {
				return err
			}
		}
	}
	return nil
}

func testConnection(c config.DatabaseConfig) error {
	fmt.Println("\nTesting database connection...")
	runner, err := db.New(c)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := runner.Connect(ctx); err != nil {
		fmt.Println(FormatError("Failed to connect to database: " + err.Error()))
		fmt.Println("\nPlease check your database configuration and try again.")
		return err
	}
	defer runner.Disconnect(ctx)

	fmt.Println(FormatSuccess("Database connection successful!"))
	return nil
}

func initCache(reader *bufio.Reader, c *config.Config) error {
	fmt.Println("\n" + FormatTitle("Question cache"))
	fmt.Println("----------------")

	provider, err := promptChoice(reader, "Cache provider (memory/mongodb) [memory]: ", []string{"memory", "mongodb"}, "memory")
	if err != nil {
		return err
	}
	c.Cache.Provider = provider

	if provider == "mongodb" {
		if c.Cache.URI, err = promptOptional(reader, fmt.Sprintf("MongoDB URI [%s]: ", c.Cache.URI), c.Cache.URI); err != nil {
			return err
		}
		if c.Cache.Database, err = promptOptional(reader, fmt.Sprintf("MongoDB database [%s]: ", c.Cache.Database), c.Cache.Database); err != nil {
			return err
		}
	}

	ttl, err := promptWithRetry(reader, fmt.Sprintf("Forget questions after [%s]: ", c.Cache.TTL), func(input string) (string, error) {
		if input == "" {
			return c.Cache.TTL.String(), nil
		}
		d, err := validateDuration(input)
		if err != nil {
			return "", err
		}
		return d.String(), nil
	})
	if err != nil {
		return err
	}
	c.Cache.TTL, _ = time.ParseDuration(ttl)

	if c.Cache.TTL > 0 {
		c.Cache.SweepCron, err = promptWithRetry(reader, fmt.Sprintf("Cleanup schedule [%s]: ", c.Cache.SweepCron), func(input string) (string, error) {
			if input == "" {
				return c.Cache.SweepCron, nil
			}
			return validateCronExpression(input)
		})
	}
	return err
}

func printSummary(c *config.Config) {
	fmt.Println("\n" + FormatHeader("Configuration Summary"))
	fmt.Println(FormatHeader("====================="))
	fmt.Println(FormatLabelValue("Engine:", c.Vanna.Engine))
	if c.Vanna.Engine == config.EngineRemote {
		fmt.Println(FormatLabelValue("Model:", c.Vanna.Model))
	} else {
		fmt.Println(FormatLabelValue("Model:", c.LLM.Provider+"/"+c.LLM.Model))
	}
	fmt.Println(FormatLabelValue("Database:", c.Database.Type))
	fmt.Println(FormatLabelValue("Cache:", c.Cache.Provider))
	fmt.Println(FormatLabelValue("Port:", c.Server.Port))
	fmt.Println()

	fmt.Println("Secrets are read from the environment only. Set these before starting:")
	if c.Vanna.Engine == config.EngineRemote {
		fmt.Println("  VANNA_API_KEY")
	} else if c.LLM.Provider != "ollama" {
		fmt.Println("  LLM_API_KEY")
	}
	switch c.Database.Type {
	case config.DatabaseSnowflake:
		fmt.Println("  SNOWFLAKE_PASSWORD")
	case config.DatabaseMSSQL:
		fmt.Println("  ODBC_CONNECTION_STRING")
	}
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Teach the engine your schema: askdb train --schema")
	fmt.Println("  2. Start the server: askdb serve")
}
