package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
)

func names(l []map[string]any) []string {
	out := make([]string, 0, len(l))
	for _, s := range l {
		out = append(out, s["name"].(string))
	}
	return out
}

func TestListSpacesFilters(t *testing.T) {
	a := newApp(t)
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Sala Andes", "Sala Pacifico", "Closed room"}},
		{"?is_active=true", []string{"Sala Andes", "Sala Pacifico"}},
		{"?is_active=false", []string{"Closed room"}},
		{"?min_capacity=5", []string{"Sala Andes", "Closed room"}},
		{"?max_capacity=10&min_capacity=5", []string{"Sala Andes"}},
		{"?amenity=projector", []string{"Sala Andes"}},
		{"?amenity=whiteboard&is_active=true", []string{"Sala Andes", "Sala Pacifico"}},
		{"?amenity=sauna", []string{}},
	}
	for _, tc := range tests {
		res := a.do(t, http.MethodGet, "/v1/spaces"+tc.query, "", nil)
		require.Equal(t, http.StatusOK, res.Code, tc.query)
		assert.Equal(t, tc.want, names(res.List(t)), tc.query)
	}

	for _, q := range []string{"?is_active=maybe", "?min_capacity=-1", "?max_capacity=big"} {
		assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/spaces"+q, "", nil).Code, q)
	}
}

func TestGetSpace(t *testing.T) {
	a := newApp(t)
	res := a.do(t, http.MethodGet, "/v1/spaces/2", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Sala Pacifico", res.JSON(t)["name"])

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/spaces/99", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/spaces/0", "", nil).Code)
}

func TestSpaceAvailability(t *testing.T) {
	a := newApp(t)
	busy := a.seed(8, 1, at(5, 10, 0), at(5, 12, 0), model.StatusActive)
	a.seed(8, 1, at(5, 12, 0), at(5, 13, 0), model.StatusCancelled)

	res := a.do(t, http.MethodGet, "/v1/spaces/1/availability?start_time=2030-03-05T11:00:00Z&end_time=2030-03-05T13:00:00Z", "", nil)
	require.Equal(t, http.StatusOK, res.Code, string(res.Body))
	got := res.JSON(t)
	assert.Equal(t, false, got["available"])
	conflicts := got["conflicts"].([]any)
	require.Len(t, conflicts, 1)
	assert.Equal(t, float64(busy.ID), conflicts[0].(map[string]any)["id"])

	res = a.do(t, http.MethodGet, "/v1/spaces/1/availability?start_time=2030-03-05T12:00:00Z&end_time=2030-03-05T13:00:00Z", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	got = res.JSON(t)
	assert.Equal(t, true, got["available"])
	assert.Empty(t, got["conflicts"])
}

func TestSpaceAvailabilityRejections(t *testing.T) {
	a := newApp(t)
	tests := []struct {
		name string
		path string
		want int
	}{
		{"missing window", "/v1/spaces/1/availability", http.StatusBadRequest},
		{"bad time", "/v1/spaces/1/availability?start_time=tomorrow&end_time=2030-03-05T13:00:00Z", http.StatusBadRequest},
		{"inverted", "/v1/spaces/1/availability?start_time=2030-03-05T13:00:00Z&end_time=2030-03-05T12:00:00Z", http.StatusBadRequest},
		{"past", "/v1/spaces/1/availability?start_time=2030-03-03T12:00:00Z&end_time=2030-03-03T13:00:00Z", http.StatusBadRequest},
		{"inactive", "/v1/spaces/3/availability?start_time=2030-03-05T12:00:00Z&end_time=2030-03-05T13:00:00Z", http.StatusBadRequest},
		{"unknown", "/v1/spaces/99/availability?start_time=2030-03-05T12:00:00Z&end_time=2030-03-05T13:00:00Z", http.StatusNotFound},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, a.do(t, http.MethodGet, tc.path, "", nil).Code, tc.name)
	}
}

func TestSpaceAvailabilityStoreUnavailable(t *testing.T) {
	a := newApp(t)
	a.store.SetFault(errors.New("timeout"))
	res := a.do(t, http.MethodGet, "/v1/spaces/1/availability?start_time=2030-03-05T12:00:00Z&end_time=2030-03-05T13:00:00Z", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
}

func TestCreateSpaceRequiresAdmin(t *testing.T) {
	a := newApp(t)
	body := map[string]any{"name": "Sala Norte", "capacity": 6, "price_per_hour_cents": 1800, "amenities": []string{"tv"}}

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, "/v1/spaces", "", body).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, "/v1/spaces", token(t, 7, false), body).Code)

	res := a.do(t, http.MethodPost, "/v1/spaces", token(t, 1, true), body)
	require.Equal(t, http.StatusCreated, res.Code, string(res.Body))
	got := res.JSON(t)
	assert.Equal(t, float64(4), got["id"])
	assert.Equal(t, true, got["is_active"])
	assert.Equal(t, 1, a.purges)

	for _, bad := range []map[string]any{
		{"name": "", "capacity": 6},
		{"name": "Sala", "capacity": 0},
		{"name": "Sala", "capacity": 2, "price_per_hour_cents": -1},
	} {
		assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/v1/spaces", token(t, 1, true), bad).Code, bad)
	}
}

func TestUpdateSpaceInvalidatesCache(t *testing.T) {
	a := newApp(t)
	admin := token(t, 1, true)

	res := a.do(t, http.MethodPut, "/v1/spaces/2", admin, map[string]any{"is_active": false, "price_per_hour_cents": 1200})
	require.Equal(t, http.StatusOK, res.Code, string(res.Body))
	got := res.JSON(t)
	assert.Equal(t, false, got["is_active"])
	assert.Equal(t, float64(1200), got["price_per_hour_cents"])
	assert.Equal(t, "Sala Pacifico", got["name"])
	assert.Equal(t, []uint64{2}, a.cache.ids)
	assert.Equal(t, 1, a.purges)

	// the deactivated space no longer accepts bookings
	book := a.do(t, http.MethodPost, "/v1/reservations", token(t, 7, false), reservationBody(2, at(5, 10, 0), at(5, 11, 0)))
	assert.Equal(t, http.StatusNotFound, book.Code)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPut, "/v1/spaces/99", admin, map[string]any{"name": "X"}).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPut, "/v1/spaces/2", admin, map[string]any{}).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPut, "/v1/spaces/2", token(t, 7, false), map[string]any{"name": "X"}).Code)
}
