package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mockmate/internal/shared/storage/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, sqlDB *sql.DB, logger *zap.Logger) error {
			if err := db.RunMigrations(ctx, sqlDB); err != nil {
				logger.Error("failed to run migrations", zap.Error(err))
				return err
			}
			version, err := db.SchemaVersion(ctx, sqlDB)
			if err != nil {
				return err
			}
			logger.Info("migrations applied", zap.Int64("version", version))
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, sqlDB *sql.DB, _ *zap.Logger) error {
			version, err := db.SchemaVersion(ctx, sqlDB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the most recent migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, sqlDB *sql.DB, logger *zap.Logger) error {
			if err := db.RollbackMigration(ctx, sqlDB); err != nil {
				logger.Error("failed to revert migration", zap.Error(err))
				return err
			}
			logger.Info("migration reverted")
			return nil
		})
	},
}

// withDatabase connects with a CLI sized pool, runs fn and closes the pool.
func withDatabase(ctx context.Context, fn func(context.Context, *sql.DB, *zap.Logger) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return errors.New("database_url is required")
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.CLIOptions(), logger)
	if err != nil {
		logger.Error("failed to connect database", zap.Error(err))
		return err
	}
	defer sqlDB.Close()
	return fn(ctx, sqlDB, logger)
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
