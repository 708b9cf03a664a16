package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string // Log verbosity level
	configPath string // Optional analysis.yaml

	// settings is resolved once per invocation from .env, PANDEMIC_* variables
	// and the --config file. Subcommands read it for flags left unset.
	settings Settings
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "pandemic-analysis",
	Short: "Featurize, aggregate, compare and plot Pandemic agent experiment results",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()

		envCfg, err := loadEnvConfig()
		if err != nil {
			logrus.Fatalf("Invalid environment configuration: %v", err)
		}
		var fileCfg *AnalysisConfig
		if configPath != "" {
			cfg, err := loadAnalysisConfig(configPath)
			if err != nil {
				logrus.Fatalf("Failed to load config: %v", err)
			}
			fileCfg = &cfg
		}
		settings = resolveSettings(envCfg, fileCfg)

		// Set up logging; an explicit --log wins over PANDEMIC_LOG_LEVEL
		if cmd.Flags().Changed("log") {
			settings.LogLevel = logLevel
		}
		level, err := logrus.ParseLevel(settings.LogLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", settings.LogLevel)
		}
		logrus.SetLevel(level)
		logrus.Debugf("settings: results dir %q, selection policy %q, %d bins, %d configured batches",
			settings.ResultsDir, settings.SelectionPolicy, settings.Bins, len(settings.Batches))
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up persistent flags; subcommands register themselves in their own files
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an analysis YAML config (results_dir, selection_policy, bins, batches)")
}
