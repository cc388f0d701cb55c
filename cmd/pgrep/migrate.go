package main

import (
	"github.com/spf13/cobra"

	"github.com/pgrep/reputation-api/internal/store"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply (or roll back) the PostgreSQL schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateDown {
			if err := store.RunMigrationsDown(cfg.PostgresURL); err != nil {
				return err
			}
			logger.Info("migrations rolled back")
			return nil
		}

		if err := store.RunMigrations(cfg.PostgresURL); err != nil {
			return err
		}
		logger.Info("migrations applied")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back all migrations")
	rootCmd.AddCommand(migrateCmd)
}
