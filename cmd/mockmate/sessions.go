package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mockmate/internal/bootstrap"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage persisted interview sessions",
}

var sessionsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete all but the newest sessions of a user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, _ := cmd.Flags().GetString("user")
		keep, _ := cmd.Flags().GetInt("keep")
		if strings.TrimSpace(user) == "" {
			return errors.New("--user is required")
		}
		if keep < 0 {
			return errors.New("--keep must not be negative")
		}

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		svc, closeFn, err := bootstrap.BuildSessions(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		removed, err := svc.Cleanup(cmd.Context(), user, keep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d sessions for %s\n", removed, user)
		return nil
	},
}

func init() {
	sessionsCleanupCmd.Flags().String("user", "", "user id whose sessions are pruned")
	sessionsCleanupCmd.Flags().Int("keep", 5, "number of newest sessions to keep")

	sessionsCmd.AddCommand(sessionsCleanupCmd)
	rootCmd.AddCommand(sessionsCmd)
}
