// Package queue carries reservation lifecycle events over RabbitMQ: a
// publisher used by the API and the completion job, and the audit
// consumer run by the worker.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
)

// EventType doubles as the routing key on the reservations exchange.
type EventType string

const (
	EventCreated   EventType = "reservation.created"
	EventCancelled EventType = "reservation.cancelled"
	EventCompleted EventType = "reservation.completed"
)

// BindingKey matches every reservation event.
const BindingKey = "reservation.#"

// ReservationEvent is published after a reservation changes state.  It
// carries enough for consumers to log or notify without reading the
// primary database.
type ReservationEvent struct {
	EventID         string    `json:"event_id"`
	Type            EventType `json:"type"`
	ReservationID   uint64    `json:"reservation_id"`
	UserID          uint64    `json:"user_id"`
	SpaceID         uint64    `json:"space_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Status          string    `json:"status"`
	TotalPriceCents int64     `json:"total_price_cents"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// NewReservationEvent snapshots r under a fresh event id.
func NewReservationEvent(t EventType, r model.Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		EventID:         uuid.NewString(),
		Type:            t,
		ReservationID:   r.ID,
		UserID:          r.UserID,
		SpaceID:         r.SpaceID,
		StartTime:       r.StartTime.UTC(),
		EndTime:         r.EndTime.UTC(),
		Status:          r.Status.String(),
		TotalPriceCents: r.TotalPriceCents,
		OccurredAt:      at.UTC(),
	}
}
