package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// ReservationStatus is the lifecycle state of a reservation.  The zero
// value is not a valid status so that an unset field is never mistaken
// for an active booking.
type ReservationStatus uint8

const (
	StatusActive ReservationStatus = iota + 1
	StatusCancelled
	StatusCompleted
)

// String returns the persisted name of the status (the value stored in
// reservations.status).
func (s ReservationStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCancelled:
		return "cancelled"
	case StatusCompleted:
		return "completed"
	}
	return fmt.Sprintf("ReservationStatus(%d)", uint8(s))
}

// Valid reports whether s is one of the declared states.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted:
		return true
	case StatusActive:
		return false
	}
	return false
}

// CanTransition reports whether the lifecycle allows moving from s to
// next.  Only active reservations move, and only to a terminal state.
func (s ReservationStatus) CanTransition(next ReservationStatus) bool {
	switch s {
	case StatusActive:
		switch next {
		case StatusCancelled, StatusCompleted:
			return true
		case StatusActive:
			return false
		}
		return false
	case StatusCancelled, StatusCompleted:
		return false
	}
	return false
}

// ParseReservationStatus converts a persisted or query-string value into
// a ReservationStatus.
func ParseReservationStatus(v string) (ReservationStatus, error) {
	switch v {
	case "active":
		return StatusActive, nil
	case "cancelled":
		return StatusCancelled, nil
	case "completed":
		return StatusCompleted, nil
	}
	return 0, fmt.Errorf("unknown reservation status %q", v)
}

// MarshalText renders the status as its persisted name in JSON payloads.
func (s ReservationStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid reservation status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *ReservationStatus) UnmarshalText(b []byte) error {
	v, err := ParseReservationStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Scan implements sql.Scanner for the reservations.status ENUM column.
func (s *ReservationStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	}
	return fmt.Errorf("cannot scan %T into ReservationStatus", src)
}

// Value implements driver.Valuer.
func (s ReservationStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid reservation status %d", uint8(s))
	}
	return s.String(), nil
}

// Reservation records a user's booking of a space for a half-open time
// interval [StartTime, EndTime).  Rows are never deleted; the lifecycle
// is carried by Status.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – user who made the reservation (owned by the users service).
//  SpaceID         – space being booked (owned by the spaces service).
//  StartTime       – inclusive start, UTC.
//  EndTime         – exclusive end, UTC.
//  Status          – active, cancelled or completed.
//  TotalPriceCents – hourly rate × duration, rounded to the cent.
//  Notes           – optional free text.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
	ID              uint64            `json:"id"`
	UserID          uint64            `json:"user_id"`
	SpaceID         uint64            `json:"space_id"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         time.Time         `json:"end_time"`
	Status          ReservationStatus `json:"status"`
	TotalPriceCents int64             `json:"total_price_cents"`
	Notes           *string           `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Duration returns EndTime - StartTime.
func (r Reservation) Duration() time.Duration { return r.EndTime.Sub(r.StartTime) }
