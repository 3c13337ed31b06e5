package main // Entry point package

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/config"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/database"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("exit", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "spacebooking",
		Short:         "Space booking services: API, background worker and migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadDotEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading configuration")
	root.AddCommand(newServeCmd(), newWorkerCmd(), newMigrateCmd())
	return root
}

// setupLogger installs a JSON slog handler at the configured level as the
// process default.
func setupLogger(level, service string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})).
		With("service", service)
	slog.SetDefault(logger)
	return logger
}

func openDB(cfg config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("connect database %s@%s:%s/%s: %w", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, err)
	}
	return db, nil
}
