package booking

import (
	"context"
	"time"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
)

// Reader is the read side of the reservation store.
type Reader interface {
	// ActiveOverlapping returns active reservations of spaceID whose
	// interval may intersect iv.  Implementations may return extra rows;
	// the engine applies the exact half-open test itself.
	ActiveOverlapping(ctx context.Context, spaceID uint64, iv Interval) ([]model.Reservation, error)
	// Get returns the reservation with the given id, or an error matching
	// model.ErrNotFound.
	Get(ctx context.Context, id uint64) (model.Reservation, error)
}

// Tx is the view of the store inside an atomic unit.
type Tx interface {
	Reader
	// Insert persists r and fills in its ID.
	Insert(ctx context.Context, r *model.Reservation) error
	// UpdateStatus sets status and updated_at of reservation id.
	UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus, at time.Time) error
}

// Store is the durable reservation store used by the engine.
type Store interface {
	Reader
	// Atomic runs fn as a single unit of work serialized against every
	// other Atomic call for the same spaceID.  Calls for different spaces
	// must not block each other.  Writes made through tx are committed only
	// when fn returns nil; an error from fn is returned unchanged.
	Atomic(ctx context.Context, spaceID uint64, fn func(ctx context.Context, tx Tx) error) error
	// ActiveEndedBefore returns up to limit active reservations whose end
	// time is strictly before t, oldest first.
	ActiveEndedBefore(ctx context.Context, t time.Time, limit int) ([]model.Reservation, error)
}

// SpaceDirectory resolves space ids owned by the spaces service.  A
// missing space is reported with an error matching model.ErrNotFound.
type SpaceDirectory interface {
	GetSpace(ctx context.Context, id uint64) (model.Space, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })
