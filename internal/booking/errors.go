package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
)

// Kind classifies a semantic rejection.  Rejections are final answers for
// the caller and are never retried.
type Kind uint8

const (
	KindInvalidInterval Kind = iota + 1
	KindDurationTooShort
	KindStartInPast
	KindSpaceNotFound
	KindSlotConflict
	KindNotFound
	KindAlreadyCancelled
	KindCompletedImmutable
	KindPastReservationImmutable
	KindPriceOutOfRange
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInterval:
		return "invalid_interval"
	case KindDurationTooShort:
		return "duration_too_short"
	case KindStartInPast:
		return "start_in_past"
	case KindSpaceNotFound:
		return "space_not_found"
	case KindSlotConflict:
		return "slot_conflict"
	case KindNotFound:
		return "not_found"
	case KindAlreadyCancelled:
		return "already_cancelled"
	case KindCompletedImmutable:
		return "completed_immutable"
	case KindPastReservationImmutable:
		return "past_reservation_immutable"
	case KindPriceOutOfRange:
		return "price_out_of_range"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

var messages = map[Kind]string{
	KindInvalidInterval:          "end_time must be after start_time",
	KindDurationTooShort:         "minimum reservation duration is 30 minutes",
	KindStartInPast:              "cannot create reservation in the past",
	KindSpaceNotFound:            "space not found or inactive",
	KindSlotConflict:             "space is not available for the selected time range",
	KindNotFound:                 "reservation not found",
	KindAlreadyCancelled:         "reservation is already cancelled",
	KindCompletedImmutable:       "cannot cancel completed reservations",
	KindPastReservationImmutable: "cannot cancel past reservations",
	KindPriceOutOfRange:          "total price is out of range",
}

// Rejection is returned when a request is well formed but violates a
// booking rule.  For KindSlotConflict, Conflicts holds the active
// reservations that block the requested interval.
type Rejection struct {
	Kind      Kind
	Conflicts []model.Reservation
}

func (r *Rejection) Error() string {
	if msg, ok := messages[r.Kind]; ok {
		return msg
	}
	return "booking rejected: " + r.Kind.String()
}

// Is matches any Rejection with the same Kind, so callers can write
// errors.Is(err, booking.ErrSlotConflict).
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Kind == r.Kind
}

func reject(k Kind) *Rejection { return &Rejection{Kind: k} }

// Sentinel rejections for errors.Is comparisons.
var (
	ErrInvalidInterval          = reject(KindInvalidInterval)
	ErrDurationTooShort         = reject(KindDurationTooShort)
	ErrStartInPast              = reject(KindStartInPast)
	ErrSpaceNotFound            = reject(KindSpaceNotFound)
	ErrSlotConflict             = reject(KindSlotConflict)
	ErrNotFound                 = reject(KindNotFound)
	ErrAlreadyCancelled         = reject(KindAlreadyCancelled)
	ErrCompletedImmutable       = reject(KindCompletedImmutable)
	ErrPastReservationImmutable = reject(KindPastReservationImmutable)
	ErrPriceOutOfRange          = reject(KindPriceOutOfRange)
)

// ErrStoreUnavailable marks transient persistence faults: the store or a
// collaborator could not be reached, timed out, or the circuit breaker is
// open.  The service layer decides whether to retry.
var ErrStoreUnavailable = errors.New("booking store unavailable")

// StoreError wraps a persistence fault.  It matches ErrStoreUnavailable
// and unwraps to the underlying cause.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreUnavailable, e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{ErrStoreUnavailable, e.Err} }

// fault wraps err as a StoreError unless it already is a Rejection or a
// StoreError.
func fault(op string, err error) error {
	if err == nil {
		return nil
	}
	var rej *Rejection
	if errors.As(err, &rej) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsRejection reports whether err carries a semantic rejection.
func IsRejection(err error) bool {
	var rej *Rejection
	return errors.As(err, &rej)
}

// CountsAsSuccess tells a circuit breaker which outcomes prove the store
// is healthy: nil, rejections, not-found lookups and caller cancellations.
func CountsAsSuccess(err error) bool {
	switch {
	case err == nil:
		return true
	case IsRejection(err):
		return true
	case errors.Is(err, model.ErrNotFound):
		return true
	case errors.Is(err, context.Canceled):
		return true
	}
	return false
}
