// Package jobs runs the background sweeps of the worker process.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/config"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/queue"
)

// ElapsedCompleter is the engine operation the sweep drives.
type ElapsedCompleter interface {
	CompleteElapsed(ctx context.Context, limit int) ([]model.Reservation, error)
}

var _ ElapsedCompleter = (*booking.Engine)(nil)

// Completer marks elapsed reservations as completed on a cron schedule
// and announces each one with a reservation.completed event.
type Completer struct {
	engine ElapsedCompleter
	events queue.EventPublisher
	cfg    config.JobsConfig
	log    *slog.Logger
	cron   *cron.Cron
}

func NewCompleter(engine ElapsedCompleter, events queue.EventPublisher, cfg config.JobsConfig, log *slog.Logger) *Completer {
	if events == nil {
		events = queue.Discard{}
	}
	if log == nil {
		log = slog.Default()
	}
	cronLog := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelWarn))
	return &Completer{
		engine: engine,
		events: events,
		cfg:    cfg,
		log:    log,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
	}
}

// RunOnce performs one sweep and returns how many reservations it
// completed.  Events are published after the state change is stored and
// a publish failure does not undo it.
func (c *Completer) RunOnce(ctx context.Context) (int, error) {
	if c.cfg.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.CompletionTimeout)
		defer cancel()
	}
	done, err := c.engine.CompleteElapsed(ctx, c.cfg.CompletionBatch)
	for _, r := range done {
		ev := queue.NewReservationEvent(queue.EventCompleted, r, r.UpdatedAt)
		if perr := c.events.Publish(ctx, ev); perr != nil {
			c.log.Warn("completion job: publish failed", "reservation_id", r.ID, "err", perr)
		}
	}
	if err != nil {
		return len(done), fmt.Errorf("completion sweep: %w", err)
	}
	return len(done), nil
}

// Start schedules the sweep and returns immediately.
func (c *Completer) Start() error {
	_, err := c.cron.AddFunc(c.cfg.CompletionSchedule, func() {
		n, err := c.RunOnce(context.Background())
		if err != nil {
			c.log.Error("completion job failed", "completed", n, "err", err)
			return
		}
		if n > 0 {
			c.log.Info("completion job", "completed", n)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", c.cfg.CompletionSchedule, err)
	}
	c.cron.Start()
	c.log.Info("completion job scheduled", "schedule", c.cfg.CompletionSchedule)
	return nil
}

// Stop stops scheduling and waits for a running sweep until ctx ends.
func (c *Completer) Stop(ctx context.Context) {
	select {
	case <-c.cron.Stop().Done():
	case <-ctx.Done():
	}
}
