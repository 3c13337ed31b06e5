package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/queue"
)

func withNotes(body map[string]any, notes string) map[string]any {
	body["notes"] = notes
	return body
}

func reservationBody(spaceID uint64, start, end time.Time) map[string]any {
	return map[string]any{
		"space_id":   spaceID,
		"start_time": start.Format(time.RFC3339),
		"end_time":   end.Format(time.RFC3339),
	}
}

func (a *app) seed(userID, spaceID uint64, start, end time.Time, status model.ReservationStatus) model.Reservation {
	return a.store.Seed(model.Reservation{
		UserID: userID, SpaceID: spaceID, StartTime: start, EndTime: end,
		Status: status, CreatedAt: now, UpdatedAt: now,
	})[0]
}

func TestCreateReservation(t *testing.T) {
	a := newApp(t)
	body := reservationBody(1, at(5, 10, 0), at(5, 12, 0))
	body["notes"] = "  sprint review  "

	res := a.do(t, http.MethodPost, "/v1/reservations", token(t, 7, false), body)
	require.Equal(t, http.StatusCreated, res.Code, string(res.Body))

	got := res.JSON(t)
	assert.Equal(t, float64(7), got["user_id"])
	assert.Equal(t, float64(1), got["space_id"])
	assert.Equal(t, "active", got["status"])
	assert.Equal(t, float64(5000), got["total_price_cents"])
	assert.Equal(t, "sprint review", got["notes"])
	assert.Equal(t, []queue.EventType{queue.EventCreated}, a.events.types())
}

func TestCreateReservationNotesLimitCountsCharacters(t *testing.T) {
	a := newApp(t)
	notes := strings.Repeat("ñ", 500)
	res := a.do(t, http.MethodPost, "/v1/reservations", token(t, 7, false),
		withNotes(reservationBody(1, at(5, 10, 0), at(5, 11, 0)), "  "+notes+"  "))
	require.Equal(t, http.StatusCreated, res.Code, string(res.Body))
	assert.Equal(t, notes, res.JSON(t)["notes"])
}

func TestCreateReservationSlotConflict(t *testing.T) {
	a := newApp(t)
	existing := a.seed(8, 1, at(5, 10, 0), at(5, 12, 0), model.StatusActive)

	res := a.do(t, http.MethodPost, "/v1/reservations", token(t, 7, false), reservationBody(1, at(5, 11, 0), at(5, 13, 0)))
	require.Equal(t, http.StatusConflict, res.Code)

	got := res.JSON(t)
	assert.Equal(t, "slot_conflict", got["code"])
	conflicts, ok := got["conflicts"].([]any)
	require.True(t, ok)
	require.Len(t, conflicts, 1)
	assert.Equal(t, float64(existing.ID), conflicts[0].(map[string]any)["id"])
	assert.Empty(t, a.events.types())
}

func TestCreateReservationAdjacentSlot(t *testing.T) {
	a := newApp(t)
	a.seed(8, 1, at(5, 10, 0), at(5, 12, 0), model.StatusActive)

	res := a.do(t, http.MethodPost, "/v1/reservations", token(t, 7, false), reservationBody(1, at(5, 12, 0), at(5, 13, 0)))
	assert.Equal(t, http.StatusCreated, res.Code, string(res.Body))
}

func TestCreateReservationRejections(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		bearer bool
		want   int
		code   string
	}{
		{"no token", reservationBody(1, at(5, 10, 0), at(5, 11, 0)), false, http.StatusUnauthorized, ""},
		{"malformed body", "{", true, http.StatusBadRequest, ""},
		{"missing space", map[string]any{"start_time": "2030-03-05T10:00:00Z", "end_time": "2030-03-05T11:00:00Z"}, true, http.StatusBadRequest, ""},
		{"missing times", map[string]any{"space_id": 1}, true, http.StatusBadRequest, ""},
		{"notes too long", withNotes(reservationBody(1, at(5, 10, 0), at(5, 11, 0)), strings.Repeat("x", 501)), true, http.StatusBadRequest, ""},
		{"inverted", reservationBody(1, at(5, 11, 0), at(5, 10, 0)), true, http.StatusBadRequest, "invalid_interval"},
		{"too short", reservationBody(1, at(5, 10, 0), at(5, 10, 29)), true, http.StatusBadRequest, "duration_too_short"},
		{"past", reservationBody(1, at(3, 10, 0), at(3, 11, 0)), true, http.StatusBadRequest, "start_in_past"},
		{"inactive space", reservationBody(3, at(5, 10, 0), at(5, 11, 0)), true, http.StatusNotFound, "space_not_found"},
		{"unknown space", reservationBody(99, at(5, 10, 0), at(5, 11, 0)), true, http.StatusNotFound, "space_not_found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := newApp(t)
			bearer := ""
			if tc.bearer {
				bearer = token(t, 7, false)
			}
			res := a.do(t, http.MethodPost, "/v1/reservations", bearer, tc.body)
			assert.Equal(t, tc.want, res.Code, string(res.Body))
			if tc.code != "" {
				assert.Equal(t, tc.code, res.JSON(t)["code"])
			}
			assert.Zero(t, a.store.Len())
		})
	}
}

func TestCreateReservationStoreUnavailable(t *testing.T) {
	a := newApp(t)
	a.store.SetFault(errors.New("connection refused"))

	res := a.do(t, http.MethodPost, "/v1/reservations", token(t, 7, false), reservationBody(1, at(5, 10, 0), at(5, 11, 0)))
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
}

func TestCreateReservationPublishFailureKeepsBooking(t *testing.T) {
	a := newApp(t)
	a.events.err = errors.New("broker down")

	res := a.do(t, http.MethodPost, "/v1/reservations", token(t, 7, false), reservationBody(1, at(5, 10, 0), at(5, 11, 0)))
	assert.Equal(t, http.StatusCreated, res.Code)
	assert.Equal(t, 1, a.store.Len())
}

func TestGetReservation(t *testing.T) {
	a := newApp(t)
	r := a.seed(7, 1, at(5, 10, 0), at(5, 11, 30), model.StatusActive)
	path := fmt.Sprintf("/v1/reservations/%d", r.ID)

	res := a.do(t, http.MethodGet, path, token(t, 7, false), nil)
	require.Equal(t, http.StatusOK, res.Code)
	got := res.JSON(t)
	assert.Equal(t, "Sala Andes", got["space_name"])
	assert.Equal(t, 1.5, got["duration_hours"])
	assert.Equal(t, float64(r.ID), got["id"])

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, path, token(t, 8, false), nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/reservations/999", token(t, 7, false), nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/reservations/abc", token(t, 7, false), nil).Code)
}

func TestGetReservationUnknownSpaceName(t *testing.T) {
	a := newApp(t)
	r := a.seed(7, 42, at(5, 10, 0), at(5, 11, 0), model.StatusActive)

	res := a.do(t, http.MethodGet, fmt.Sprintf("/v1/reservations/%d", r.ID), token(t, 7, false), nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Unknown", res.JSON(t)["space_name"])
}

func TestCancelReservation(t *testing.T) {
	a := newApp(t)
	r := a.seed(7, 1, at(5, 10, 0), at(5, 11, 0), model.StatusActive)
	path := fmt.Sprintf("/v1/reservations/%d", r.ID)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, path, token(t, 8, false), nil).Code)

	res := a.do(t, http.MethodDelete, path, token(t, 7, false), nil)
	require.Equal(t, http.StatusNoContent, res.Code, string(res.Body))
	assert.Equal(t, []queue.EventType{queue.EventCancelled}, a.events.types())

	again := a.do(t, http.MethodDelete, path, token(t, 7, false), nil)
	assert.Equal(t, http.StatusBadRequest, again.Code)
	assert.Equal(t, "already_cancelled", again.JSON(t)["code"])

	// the freed slot can be booked again
	rebook := a.do(t, http.MethodPost, "/v1/reservations", token(t, 8, false), reservationBody(1, at(5, 10, 0), at(5, 11, 0)))
	assert.Equal(t, http.StatusCreated, rebook.Code)
}

func TestCancelReservationRejections(t *testing.T) {
	a := newApp(t)
	completed := a.seed(7, 1, at(2, 10, 0), at(2, 11, 0), model.StatusCompleted)
	past := a.seed(7, 1, at(3, 10, 0), at(3, 11, 0), model.StatusActive)

	res := a.do(t, http.MethodDelete, fmt.Sprintf("/v1/reservations/%d", completed.ID), token(t, 7, false), nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "completed_immutable", res.JSON(t)["code"])

	res = a.do(t, http.MethodDelete, fmt.Sprintf("/v1/reservations/%d", past.ID), token(t, 7, false), nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "past_reservation_immutable", res.JSON(t)["code"])

	assert.Empty(t, a.events.types())
}

func TestListReservations(t *testing.T) {
	a := newApp(t)
	first := a.seed(7, 1, at(5, 10, 0), at(5, 11, 0), model.StatusActive)
	second := a.seed(7, 2, at(6, 10, 0), at(6, 11, 0), model.StatusCancelled)
	a.seed(8, 1, at(7, 10, 0), at(7, 11, 0), model.StatusActive)
	bearer := token(t, 7, false)

	res := a.do(t, http.MethodGet, "/v1/reservations", bearer, nil)
	require.Equal(t, http.StatusOK, res.Code)
	all := res.List(t)
	require.Len(t, all, 2)
	assert.Equal(t, float64(second.ID), all[0]["id"])
	assert.Equal(t, float64(first.ID), all[1]["id"])

	res = a.do(t, http.MethodGet, "/v1/reservations?status=cancelled", bearer, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Len(t, res.List(t), 1)

	res = a.do(t, http.MethodGet, "/v1/reservations?limit=1", bearer, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Len(t, res.List(t), 1)

	res = a.do(t, http.MethodGet, "/v1/reservations", token(t, 9, false), nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "[]\n", string(res.Body))

	for _, q := range []string{"status=bogus", "limit=0", "limit=101", "limit=x"} {
		assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/reservations?"+q, bearer, nil).Code, q)
	}
}

func TestUpcomingCount(t *testing.T) {
	a := newApp(t)
	a.seed(7, 1, at(5, 10, 0), at(5, 11, 0), model.StatusActive)
	a.seed(7, 1, at(6, 10, 0), at(6, 11, 0), model.StatusCancelled)
	a.seed(7, 1, at(3, 10, 0), at(3, 11, 0), model.StatusActive)

	res := a.do(t, http.MethodGet, "/v1/reservations/upcoming/count", token(t, 7, false), nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), res.JSON(t)["upcoming_reservations"])
}
