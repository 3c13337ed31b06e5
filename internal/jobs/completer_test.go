package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking/memstore"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/config"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/queue"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

var _ queue.EventPublisher = (*recordingPublisher)(nil)

func TestRunOnceCompletesAndPublishes(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	store := memstore.New()
	store.Seed(
		model.Reservation{UserID: 1, SpaceID: 1, StartTime: now.Add(-3 * time.Hour), EndTime: now.Add(-2 * time.Hour), Status: model.StatusActive},
		model.Reservation{UserID: 1, SpaceID: 2, StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour), Status: model.StatusActive},
		model.Reservation{UserID: 2, SpaceID: 1, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour), Status: model.StatusActive},
		model.Reservation{UserID: 2, SpaceID: 1, StartTime: now.Add(-5 * time.Hour), EndTime: now.Add(-4 * time.Hour), Status: model.StatusCancelled},
	)
	engine := booking.NewEngine(store, memstore.NewSpaces(), booking.ClockFunc(func() time.Time { return now }))
	pub := &recordingPublisher{err: errors.New("broker down")}
	c := NewCompleter(engine, pub, config.JobsConfig{CompletionBatch: 10, CompletionTimeout: time.Second}, nil)

	n, err := c.RunOnce(context.Background())
	require.NoError(t, err, "publish failures do not fail the sweep")
	assert.Equal(t, 2, n)
	require.Len(t, pub.events, 2)
	for _, ev := range pub.events {
		assert.Equal(t, queue.EventCompleted, ev.Type)
		assert.Equal(t, "completed", ev.Status)
	}

	n, err = c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunOnceRespectsBatch(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	store := memstore.New()
	for i := 0; i < 5; i++ {
		store.Seed(model.Reservation{UserID: 1, SpaceID: uint64(i + 1),
			StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour), Status: model.StatusActive})
	}
	engine := booking.NewEngine(store, memstore.NewSpaces(), booking.ClockFunc(func() time.Time { return now }))
	c := NewCompleter(engine, nil, config.JobsConfig{CompletionBatch: 3}, nil)

	n, err := c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	c := NewCompleter(nil, nil, config.JobsConfig{CompletionSchedule: "every now and then"}, nil)
	assert.Error(t, c.Start())

	ok := NewCompleter(nil, nil, config.JobsConfig{CompletionSchedule: "@every 1h"}, nil)
	require.NoError(t, ok.Start())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ok.Stop(ctx)
}
