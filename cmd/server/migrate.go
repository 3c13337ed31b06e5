package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/config"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			setupLogger(cfg.LogLevel, "migrate")

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			return database.Migrate(ctx, db)
		},
	}
}
