package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/repository"
)

// ReservationStats is the slice of the reservation store the profile
// statistics need.
type ReservationStats interface {
	CountByStatus(ctx context.Context, userID uint64) (map[model.ReservationStatus]int, error)
}

// UsersHandler serves the caller's own profile under /v1/users/me.
type UsersHandler struct {
	Users        UserStore
	Tokens       TokenStore
	Reservations ReservationStats
	Log          *slog.Logger
}

func NewUsersHandler(u UserStore, t TokenStore, r ReservationStats, log *slog.Logger) *UsersHandler {
	if u == nil || t == nil || r == nil {
		panic("nil dependency passed to NewUsersHandler")
	}
	return &UsersHandler{Users: u, Tokens: t, Reservations: r, Log: loggerOrDefault(log)}
}

type updateProfileReq struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// loadCaller fetches the active account behind the token.  A deactivated
// account is reported as 404 so that old access tokens stop working for
// profile calls.
func (h *UsersHandler) loadCaller(c echo.Context) (model.User, bool, error) {
	uid, ok := callerID(c)
	if !ok {
		return model.User{}, false, unauthorized(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil || !u.IsActive {
		if err == nil || errors.Is(err, model.ErrNotFound) {
			return model.User{}, false, c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		h.Log.Error("users: load caller", "user_id", uid, "err", err)
		return model.User{}, false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return u, true, nil
}

// GetMe handles GET /v1/users/me.
func (h *UsersHandler) GetMe(c echo.Context) error {
	u, ok, err := h.loadCaller(c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, userView(u))
}

// UpdateMe handles PUT /v1/users/me.  At least one of name and email must
// be present.
func (h *UsersHandler) UpdateMe(c echo.Context) error {
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil && req.Email == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name or email required"})
	}
	if req.Name != nil {
		n := strings.TrimSpace(*req.Name)
		if !validName(n) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must be between 2 and 255 characters"})
		}
		req.Name = &n
	}
	if req.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*req.Email))
		if !validEmail(e) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
		}
		req.Email = &e
	}

	u, ok, err := h.loadCaller(c)
	if !ok {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	updated, err := h.Users.UpdateProfile(ctx, u.ID, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		h.Log.Error("users: update profile", "user_id", u.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, userView(updated))
}

// DeleteMe handles DELETE /v1/users/me: the account is deactivated and
// every refresh token revoked.  Reservations are kept.
func (h *UsersHandler) DeleteMe(c echo.Context) error {
	u, ok, err := h.loadCaller(c)
	if !ok {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Users.Deactivate(ctx, u.ID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		h.Log.Error("users: deactivate", "user_id", u.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		h.Log.Warn("users: revoke tokens after deactivation", "user_id", u.ID, "err", err)
	}
	h.Log.Info("user deactivated", "user_id", u.ID)
	return c.NoContent(http.StatusNoContent)
}

// Stats handles GET /v1/users/me/stats.
func (h *UsersHandler) Stats(c echo.Context) error {
	u, ok, err := h.loadCaller(c)
	if !ok {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	counts, err := h.Reservations.CountByStatus(ctx, u.ID)
	if err != nil {
		h.Log.Error("users: reservation stats", "user_id", u.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats failed"})
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":                u.ID,
		"member_since":           u.CreatedAt,
		"total_reservations":     total,
		"active_reservations":    counts[model.StatusActive],
		"cancelled_reservations": counts[model.StatusCancelled],
		"completed_reservations": counts[model.StatusCompleted],
	})
}
