package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aleisley/ta-backend/internal/config"
	"github.com/aleisley/ta-backend/internal/repository/postgres"
)

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			if a.cfg.Database.Driver == config.DriverMemory {
				a.log.Info("memory driver needs no migration")
				return nil
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(context.Background(), db); err != nil {
				return err
			}
			a.log.Info("migrations applied")
			return nil
		},
	}
}
