package main

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/cache"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/config"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/queue"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/repository"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/resilience"
)

// components is what both the API and the worker build on top of MySQL
// and Redis.
type components struct {
	Reservations *repository.ReservationRepo
	Spaces       *repository.SpaceRepo
	// SpaceCache is the Redis read-through directory over Spaces.
	SpaceCache *cache.SpaceDirectory
	// Directory is SpaceCache behind its circuit breaker.
	Directory booking.SpaceDirectory
	Engine    *booking.Engine
}

func buildComponents(db *sql.DB, rdb *redis.Client, logger *slog.Logger) components {
	breakerCfg := config.LoadBreakerConfig()
	resRepo := repository.NewReservationRepo(db)
	spaceRepo := repository.NewSpaceRepo(db)
	spaceCache := cache.NewSpaceDirectory(spaceRepo, rdb, config.LoadSpaceCacheConfig(), logger)

	store := booking.Guard(resRepo,
		resilience.New("reservation-store", breakerCfg, logger, booking.CountsAsSuccess))
	directory := booking.GuardDirectory(spaceCache,
		resilience.New("space-directory", breakerCfg, logger, booking.CountsAsSuccess))

	return components{
		Reservations: resRepo,
		Spaces:       spaceRepo,
		SpaceCache:   spaceCache,
		Directory:    directory,
		Engine:       booking.NewEngine(store, directory, booking.SystemClock),
	}
}

// eventPublisher returns the broker publisher, or a discarding one when
// events are switched off.  The closer is always safe to call.
func eventPublisher(cfg config.BrokerConfig, logger *slog.Logger) (queue.EventPublisher, func() error) {
	if !cfg.Enabled {
		logger.Info("reservation events disabled")
		return queue.Discard{}, func() error { return nil }
	}
	p := queue.NewPublisher(cfg, logger)
	return p, p.Close
}
