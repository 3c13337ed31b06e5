package router

import (
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/config"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/handler"
)

func mounted(e *echo.Echo) map[string]bool {
	out := map[string]bool{}
	for _, r := range e.Routes() {
		out[r.Method+" "+r.Path] = true
	}
	return out
}

func allHandlers() Handlers {
	return Handlers{
		Health:       &handler.HealthHandler{},
		Auth:         &handler.AuthHandler{},
		Users:        &handler.UsersHandler{},
		Spaces:       &handler.SpacesHandler{},
		Reservations: &handler.ReservationsHandler{},
	}
}

func TestRegisterRoutesPerService(t *testing.T) {
	tests := []struct {
		service string
		want    []string
		absent  []string
	}{
		{
			service: "all",
			want:    []string{"GET /healthz", "POST /v1/auth/login", "GET /v1/users/me/stats", "PUT /v1/spaces/:id", "DELETE /v1/reservations/:id"},
		},
		{
			service: "spaces",
			want:    []string{"GET /healthz", "GET /v1/spaces", "GET /v1/spaces/:id/availability", "POST /v1/spaces"},
			absent:  []string{"POST /v1/reservations", "POST /v1/auth/login", "GET /v1/users/me"},
		},
		{
			service: "reservations",
			want:    []string{"POST /v1/reservations", "GET /v1/reservations/upcoming/count"},
			absent:  []string{"GET /v1/spaces", "POST /v1/auth/register"},
		},
		{
			service: "auth",
			want:    []string{"POST /v1/auth/register", "POST /v1/auth/validate", "GET /v1/auth/me"},
			absent:  []string{"GET /v1/users/me", "GET /v1/spaces"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.service, func(t *testing.T) {
			e := echo.New()
			RegisterRoutes(e, config.Config{Service: tc.service, JWTSecret: "s"}, allHandlers(), Options{})
			got := mounted(e)
			for _, r := range tc.want {
				assert.True(t, got[r], r)
			}
			for _, r := range tc.absent {
				assert.False(t, got[r], r)
			}
		})
	}
}

func TestRegisterRoutesSkipsNilHandlers(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e, config.Config{Service: "all", JWTSecret: "s"}, Handlers{Spaces: &handler.SpacesHandler{}}, Options{})
	got := mounted(e)
	assert.True(t, got["GET /v1/spaces"])
	assert.False(t, got["GET /healthz"])
	assert.False(t, got["POST /v1/reservations"])
}

func TestChainDropsNil(t *testing.T) {
	noop := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	assert.Len(t, chain(nil, noop, nil), 1)
	assert.Empty(t, chain())
}
