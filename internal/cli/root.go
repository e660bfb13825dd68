package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AI2HU/askdb/internal/config"
	"github.com/AI2HU/askdb/internal/logger"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "askdb",
	Short: "Ask questions about your SQL database in plain language",
	Long: `askdb turns natural language questions into SQL, runs them against your
database and serves the answers, charts and follow-up questions over HTTP.

Settings come from a YAML config file and the environment (a .env file in the
working directory is loaded first). Secrets such as VANNA_API_KEY are only
read from the environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The wizard writes the config, it does not need one
		if cmd.Name() == "init" {
			logger.Init(logger.ParseLogLevel(logLevel), os.Stdout)
			return nil
		}

		if cfgFile == "" {
			cfgFile = config.GetConfigPath()
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") || level == "" {
			level = logLevel
		}
		logger.Init(logger.ParseLogLevel(level), os.Stdout)

		if config.Exists(cfgFile) {
			logger.Debug("Loaded config from %s", cfgFile)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.askdb/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "log level (DEBUG, INFO, WARNING, ERROR)")

	// Disable completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(trainingCmd)
	rootCmd.AddCommand(migrateCmd)
}
