package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/config"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/jobs"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/queue"
)

func newWorkerCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the completion job and the reservation event consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return work(cmd.Context(), once)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single completion sweep and exit")
	return cmd
}

func work(parent context.Context, once bool) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg := config.Load()
	logger := setupLogger(cfg.LogLevel, "worker")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	comps := buildComponents(db, rdb, logger)
	brokerCfg := config.LoadBrokerConfig()
	events, closeEvents := eventPublisher(brokerCfg, logger)
	defer func() { _ = closeEvents() }()

	completer := jobs.NewCompleter(comps.Engine, events, config.LoadJobsConfig(), logger)
	if once {
		n, err := completer.RunOnce(ctx)
		logger.Info("completion sweep", "completed", n)
		return err
	}
	if err := completer.Start(); err != nil {
		return err
	}

	consumerDone := make(chan error, 1)
	if brokerCfg.Enabled {
		go func() { consumerDone <- queue.NewConsumer(brokerCfg, logger).Run(ctx) }()
	} else {
		close(consumerDone)
	}

	<-ctx.Done()
	logger.Info("worker stopping")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	completer.Stop(stopCtx)

	select {
	case err := <-consumerDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-stopCtx.Done():
	}
	return nil
}
