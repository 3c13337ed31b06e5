package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/config"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/database"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/handler"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/middleware"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/repository"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/router"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (route groups selected by APP_SERVICE)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(parent context.Context, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg := config.Load()
	logger := setupLogger(cfg.LogLevel, cfg.Service)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	comps := buildComponents(db, rdb, logger)
	events, closeEvents := eventPublisher(config.LoadBrokerConfig(), logger)
	defer func() { _ = closeEvents() }()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	cacheCfg := config.LoadCacheConfig()

	spaces := handler.NewSpacesHandler(comps.Spaces, comps.Directory, comps.Engine, logger)
	spaces.Cache = comps.SpaceCache
	spaces.PurgeListings = func(ctx context.Context) error {
		return middleware.PurgeResponseCache(ctx, cacheCfg, rdb)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(
		echomw.Recover(),
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: cfg.AllowedOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}),
	)

	router.RegisterRoutes(e, cfg, router.Handlers{
		Health:       handler.NewHealthHandler(cfg.Service, cfg.Env, db, rdb),
		Auth:         handler.NewAuthHandler(cfg, users, tokens, logger),
		Users:        handler.NewUsersHandler(users, tokens, comps.Reservations, logger),
		Spaces:       spaces,
		Reservations: handler.NewReservationsHandler(comps.Engine, comps.Reservations, comps.Directory, events, logger),
	}, router.Options{
		RateLimit:     middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
		ResponseCache: middleware.NewRedisCache(cacheCfg, rdb),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
