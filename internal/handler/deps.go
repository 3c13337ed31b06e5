package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/middleware"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/repository"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

// UserStore is the account storage used by the auth and users endpoints.
type UserStore interface {
	Create(ctx context.Context, email, name, password string, cost int) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, name, email *string) (model.User, error)
	Deactivate(ctx context.Context, id uint64) error
}

// TokenStore persists refresh token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// SpaceCatalog is the spaces service's own storage.
type SpaceCatalog interface {
	booking.SpaceDirectory
	List(ctx context.Context, f model.SpaceFilter) ([]model.Space, error)
	Create(ctx context.Context, s *model.Space) error
	Update(ctx context.Context, id uint64, u model.SpaceUpdate) (model.Space, error)
}

// ReservationQueries are the read-only reservation lookups that do not go
// through the booking engine.
type ReservationQueries interface {
	Get(ctx context.Context, id uint64) (model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64, status model.ReservationStatus, limit int) ([]model.Reservation, error)
	CountUpcoming(ctx context.Context, userID uint64, now time.Time) (int, error)
	CountByStatus(ctx context.Context, userID uint64) (map[model.ReservationStatus]int, error)
}

// Booker is the booking engine as seen by the HTTP layer.
type Booker interface {
	CheckAvailability(ctx context.Context, spaceID uint64, start, end time.Time, excludeID uint64) (bool, []model.Reservation, error)
	CreateReservation(ctx context.Context, req booking.CreateRequest) (model.Reservation, error)
	CancelReservation(ctx context.Context, reservationID, userID uint64) (model.Reservation, error)
}

// SpaceInvalidator drops cached copies of a space after it changes.
type SpaceInvalidator interface {
	Invalidate(ctx context.Context, id uint64) error
}

var (
	_ UserStore          = (*repository.UserRepo)(nil)
	_ TokenStore         = (*repository.TokenRepo)(nil)
	_ SpaceCatalog       = (*repository.SpaceRepo)(nil)
	_ ReservationQueries = (*repository.ReservationRepo)(nil)
	_ Booker             = (*booking.Engine)(nil)
)

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// callerID returns the authenticated user id placed in the context by
// middleware.JWTAuth.
func callerID(c echo.Context) (uint64, bool) {
	return middleware.CurrentUserID(c)
}

func clockOrSystem(c booking.Clock) booking.Clock {
	if c == nil {
		return booking.SystemClock
	}
	return c
}
