// Package booking implements the reservation lifecycle for spaces: the
// availability check, conflict-safe creation, cancellation and the
// completion of elapsed reservations.  It is the only code allowed to
// change a reservation's status.
package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sort"
	"time"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
)

// MinDuration is the shortest bookable interval.
const MinDuration = 30 * time.Minute

// Engine owns availability checks and reservation state transitions.  It
// keeps no mutable state of its own; every request is independent and all
// coordination happens through Store.Atomic.
type Engine struct {
	store  Store
	spaces SpaceDirectory
	clock  Clock
}

// NewEngine returns an Engine.  A nil clock means SystemClock.
func NewEngine(store Store, spaces SpaceDirectory, clock Clock) *Engine {
	if store == nil || spaces == nil {
		panic("nil collaborator passed to booking.NewEngine")
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Engine{store: store, spaces: spaces, clock: clock}
}

// CreateRequest carries the input of CreateReservation.  UserID must come
// from an already authenticated caller.
type CreateRequest struct {
	UserID  uint64
	SpaceID uint64
	Start   time.Time
	End     time.Time
	Notes   *string
}

// CheckAvailability lists the active reservations of spaceID that
// intersect [start, end), ordered by start time.  A non-zero excludeID is
// left out of the result, which lets an existing reservation be checked
// against everything but itself.  The space is assumed to exist.
func (e *Engine) CheckAvailability(ctx context.Context, spaceID uint64, start, end time.Time, excludeID uint64) (bool, []model.Reservation, error) {
	iv := NewInterval(start, end)
	candidates, err := e.store.ActiveOverlapping(ctx, spaceID, iv)
	if err != nil {
		return false, nil, fault("check availability", err)
	}
	conflicts := conflicting(candidates, iv, excludeID)
	return len(conflicts) == 0, conflicts, nil
}

// CreateReservation validates the request and books the interval.  The
// checks run in order and the first failure is returned as a *Rejection:
// InvalidInterval, DurationTooShort, StartInPast, SpaceNotFound,
// SlotConflict, PriceOutOfRange.  The space lookup, the conflict scan and
// the insert run inside one Store.Atomic unit for the space, so of several
// concurrent overlapping requests at most one succeeds.
func (e *Engine) CreateReservation(ctx context.Context, req CreateRequest) (model.Reservation, error) {
	iv := NewInterval(req.Start, req.End)
	if !iv.Valid() {
		return model.Reservation{}, reject(KindInvalidInterval)
	}
	if iv.Duration() < MinDuration {
		return model.Reservation{}, reject(KindDurationTooShort)
	}
	now := e.clock.Now().UTC()
	if iv.Start.Before(now) {
		return model.Reservation{}, reject(KindStartInPast)
	}

	var created model.Reservation
	err := e.store.Atomic(ctx, req.SpaceID, func(ctx context.Context, tx Tx) error {
		space, err := e.spaces.GetSpace(ctx, req.SpaceID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return reject(KindSpaceNotFound)
			}
			return fault("get space", err)
		}
		if !space.IsActive {
			return reject(KindSpaceNotFound)
		}

		candidates, err := tx.ActiveOverlapping(ctx, req.SpaceID, iv)
		if err != nil {
			return fault("scan reservations", err)
		}
		if conflicts := conflicting(candidates, iv, 0); len(conflicts) > 0 {
			return &Rejection{Kind: KindSlotConflict, Conflicts: conflicts}
		}

		total, ok := Price(space.PricePerHourCents, iv.Seconds())
		if !ok {
			return reject(KindPriceOutOfRange)
		}
		r := model.Reservation{
			UserID:          req.UserID,
			SpaceID:         req.SpaceID,
			StartTime:       iv.Start,
			EndTime:         iv.End,
			Status:          model.StatusActive,
			TotalPriceCents: total,
			Notes:           req.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Insert(ctx, &r); err != nil {
			return fault("insert reservation", err)
		}
		created = r
		return nil
	})
	if err != nil {
		return model.Reservation{}, fault("create reservation", err)
	}
	return created, nil
}

// CancelReservation moves an active reservation owned by userID to
// cancelled.  A reservation owned by someone else is reported as
// NotFound.  Cancelling twice yields AlreadyCancelled; completed and
// already finished reservations cannot be cancelled.
func (e *Engine) CancelReservation(ctx context.Context, reservationID, userID uint64) (model.Reservation, error) {
	current, err := e.store.Get(ctx, reservationID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Reservation{}, reject(KindNotFound)
		}
		return model.Reservation{}, fault("get reservation", err)
	}
	if current.UserID != userID {
		return model.Reservation{}, reject(KindNotFound)
	}

	var cancelled model.Reservation
	err = e.store.Atomic(ctx, current.SpaceID, func(ctx context.Context, tx Tx) error {
		// Re-read under the space lock; a concurrent cancel or the
		// completion job may have moved it.
		r, err := tx.Get(ctx, reservationID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return reject(KindNotFound)
			}
			return fault("get reservation", err)
		}
		switch r.Status {
		case model.StatusCancelled:
			return reject(KindAlreadyCancelled)
		case model.StatusCompleted:
			return reject(KindCompletedImmutable)
		case model.StatusActive:
		default:
			return fmt.Errorf("reservation %d has unknown status %d", r.ID, uint8(r.Status))
		}
		now := e.clock.Now().UTC()
		if r.EndTime.Before(now) {
			return reject(KindPastReservationImmutable)
		}
		if err := tx.UpdateStatus(ctx, r.ID, model.StatusCancelled, now); err != nil {
			return fault("update reservation", err)
		}
		r.Status = model.StatusCancelled
		r.UpdatedAt = now
		cancelled = r
		return nil
	})
	if err != nil {
		return model.Reservation{}, fault("cancel reservation", err)
	}
	return cancelled, nil
}

// CompleteElapsed moves up to limit active reservations whose end time has
// passed to completed and returns them.  It is driven by the completion
// job, not by user requests.  Reservations that changed state between the
// scan and the update are skipped.
func (e *Engine) CompleteElapsed(ctx context.Context, limit int) ([]model.Reservation, error) {
	now := e.clock.Now().UTC()
	due, err := e.store.ActiveEndedBefore(ctx, now, limit)
	if err != nil {
		return nil, fault("scan elapsed reservations", err)
	}
	completed := make([]model.Reservation, 0, len(due))
	for _, d := range due {
		var done *model.Reservation
		err := e.store.Atomic(ctx, d.SpaceID, func(ctx context.Context, tx Tx) error {
			r, err := tx.Get(ctx, d.ID)
			if err != nil {
				return err
			}
			if !r.Status.CanTransition(model.StatusCompleted) || !r.EndTime.Before(now) {
				return nil
			}
			if err := tx.UpdateStatus(ctx, r.ID, model.StatusCompleted, now); err != nil {
				return err
			}
			r.Status = model.StatusCompleted
			r.UpdatedAt = now
			done = &r
			return nil
		})
		if err != nil {
			return completed, fault("complete reservation", err)
		}
		if done != nil {
			completed = append(completed, *done)
		}
	}
	return completed, nil
}

// Price returns perHourCents for secs seconds, rounded half up to the
// cent.  ok is false when either input is negative or the total does not
// fit in an int64.
func Price(perHourCents, secs int64) (cents int64, ok bool) {
	if perHourCents < 0 || secs < 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(uint64(perHourCents), uint64(secs))
	if hi != 0 || lo > math.MaxInt64-1800 {
		return 0, false
	}
	return (int64(lo) + 1800) / 3600, true
}

// conflicting filters candidates down to the active reservations other
// than excludeID that overlap iv, sorted by start time then id.
func conflicting(candidates []model.Reservation, iv Interval, excludeID uint64) []model.Reservation {
	out := make([]model.Reservation, 0)
	for _, c := range candidates {
		if c.Status != model.StatusActive {
			continue
		}
		if excludeID != 0 && c.ID == excludeID {
			continue
		}
		if !iv.Overlaps(Interval{Start: c.StartTime, End: c.EndTime}) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
