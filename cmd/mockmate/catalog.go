package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"mockmate/internal/bootstrap"
	"mockmate/internal/questions"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the question catalog",
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print catalog coverage against the stage plan as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		plan, err := bootstrap.BuildPlan(cfg)
		if err != nil {
			return err
		}
		records, report, err := bootstrap.LoadCatalog(cmd.Context(), cfg, plan, logger)
		if err != nil {
			return err
		}

		out := struct {
			Stats  questions.Stats      `json:"stats"`
			Report questions.LoadReport `json:"report"`
		}{
			Stats:  questions.ComputeStats(records, plan),
			Report: report,
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	catalogCmd.AddCommand(catalogStatsCmd)
	rootCmd.AddCommand(catalogCmd)
}
