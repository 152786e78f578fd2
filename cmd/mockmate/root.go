package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mockmate/internal/shared/config"
	"mockmate/internal/shared/telemetry"
)

const app = "mockmate"

// Actual version can be specified in build command.
var version = "unknown"

var (
	// Used for flags.
	cfgFile string

	v = config.New()

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "mockmate runs staged mock interviews over a question catalog",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.ReadFile(v, cfgFile)
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: json or console")

	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// loadConfig returns the validated configuration and a logger built from it.
func loadConfig() (config.Config, *zap.Logger, error) {
	cfg := config.Load(v)
	logger, err := telemetry.New(telemetry.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return cfg, nil, fmt.Errorf("creating a logger: %w", err)
	}
	return cfg, logger, nil
}
