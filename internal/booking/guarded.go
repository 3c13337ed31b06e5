package booking

import (
	"context"
	"time"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/resilience"
)

// Guard routes every Store call through b.  The breaker should be built
// with CountsAsSuccess so that rejections returned from inside Atomic do
// not trip it.  A nil breaker returns s unchanged.
func Guard(s Store, b *resilience.Breaker) Store {
	if b == nil {
		return s
	}
	return &guardedStore{next: s, b: b}
}

type guardedStore struct {
	next Store
	b    *resilience.Breaker
}

func (g *guardedStore) ActiveOverlapping(ctx context.Context, spaceID uint64, iv Interval) ([]model.Reservation, error) {
	return resilience.Do(g.b, func() ([]model.Reservation, error) {
		return g.next.ActiveOverlapping(ctx, spaceID, iv)
	})
}

func (g *guardedStore) Get(ctx context.Context, id uint64) (model.Reservation, error) {
	return resilience.Do(g.b, func() (model.Reservation, error) {
		return g.next.Get(ctx, id)
	})
}

func (g *guardedStore) Atomic(ctx context.Context, spaceID uint64, fn func(ctx context.Context, tx Tx) error) error {
	return g.b.Call(func() error {
		return g.next.Atomic(ctx, spaceID, fn)
	})
}

func (g *guardedStore) ActiveEndedBefore(ctx context.Context, t time.Time, limit int) ([]model.Reservation, error) {
	return resilience.Do(g.b, func() ([]model.Reservation, error) {
		return g.next.ActiveEndedBefore(ctx, t, limit)
	})
}

// GuardDirectory routes space lookups through b.
func GuardDirectory(d SpaceDirectory, b *resilience.Breaker) SpaceDirectory {
	if b == nil {
		return d
	}
	return &guardedDirectory{next: d, b: b}
}

type guardedDirectory struct {
	next SpaceDirectory
	b    *resilience.Breaker
}

func (g *guardedDirectory) GetSpace(ctx context.Context, id uint64) (model.Space, error) {
	return resilience.Do(g.b, func() (model.Space, error) {
		return g.next.GetSpace(ctx, id)
	})
}
