package handler

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/queue"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
	maxNotesLength   = 500
)

// ReservationsHandler exposes the booking engine to authenticated users.
// Every route acts on the caller's own reservations only.
type ReservationsHandler struct {
	Booker  Booker
	Queries ReservationQueries
	// Spaces resolves space names for the detail view.
	Spaces booking.SpaceDirectory
	Events queue.EventPublisher
	Clock  booking.Clock
	Log    *slog.Logger
}

func NewReservationsHandler(b Booker, q ReservationQueries, spaces booking.SpaceDirectory, events queue.EventPublisher, log *slog.Logger) *ReservationsHandler {
	if b == nil || q == nil || spaces == nil {
		panic("nil dependency passed to NewReservationsHandler")
	}
	if events == nil {
		events = queue.Discard{}
	}
	return &ReservationsHandler{Booker: b, Queries: q, Spaces: spaces, Events: events, Log: loggerOrDefault(log)}
}

type createReservationReq struct {
	SpaceID   uint64    `json:"space_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     *string   `json:"notes"`
}

type reservationDetail struct {
	model.Reservation
	SpaceName     string  `json:"space_name"`
	DurationHours float64 `json:"duration_hours"`
}

// publish announces a committed state change.  The reservation is already
// stored, so a broker failure is only logged.
func (h *ReservationsHandler) publish(ctx context.Context, t queue.EventType, r model.Reservation) {
	ev := queue.NewReservationEvent(t, r, clockOrSystem(h.Clock).Now())
	if err := h.Events.Publish(ctx, ev); err != nil {
		h.Log.Warn("reservation event not published",
			"event", string(t), "reservation_id", r.ID, "err", err)
	}
}

// Create handles POST /v1/reservations.
func (h *ReservationsHandler) Create(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return unauthorized(c)
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SpaceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "space_id is required"})
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time and end_time are required"})
	}
	if req.Notes != nil {
		n := strings.TrimSpace(*req.Notes)
		switch {
		case n == "":
			req.Notes = nil
		case utf8.RuneCountInString(n) > maxNotesLength:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "notes must be at most 500 characters"})
		default:
			req.Notes = &n
		}
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	r, err := h.Booker.CreateReservation(ctx, booking.CreateRequest{
		UserID:  uid,
		SpaceID: req.SpaceID,
		Start:   req.StartTime,
		End:     req.EndTime,
		Notes:   req.Notes,
	})
	if err != nil {
		if errors.Is(err, booking.ErrSlotConflict) {
			h.Log.Info("reservation conflict", "user_id", uid, "space_id", req.SpaceID)
		}
		return bookingError(c, h.Log, err)
	}
	h.Log.Info("reservation created",
		"reservation_id", r.ID, "user_id", uid, "space_id", r.SpaceID,
		"start_time", r.StartTime, "end_time", r.EndTime)
	h.publish(ctx, queue.EventCreated, r)
	return c.JSON(http.StatusCreated, r)
}

// List handles GET /v1/reservations?status=&limit=.  Results are ordered
// by start time, newest first.
func (h *ReservationsHandler) List(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return unauthorized(c)
	}
	var status model.ReservationStatus
	if v := strings.TrimSpace(c.QueryParam("status")); v != "" {
		s, err := model.ParseReservationStatus(strings.ToLower(v))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be active, cancelled or completed"})
		}
		status = s
	}
	limit := defaultListLimit
	if v := strings.TrimSpace(c.QueryParam("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be between 1 and 100"})
		}
		limit = n
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	rs, err := h.Queries.ListByUser(ctx, uid, status, limit)
	if err != nil {
		h.Log.Error("reservations: list", "user_id", uid, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
	}
	if rs == nil {
		rs = []model.Reservation{}
	}
	return c.JSON(http.StatusOK, rs)
}

// Get handles GET /v1/reservations/:id.  Another user's reservation is
// reported as not found.
func (h *ReservationsHandler) Get(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	r, err := h.Queries.Get(ctx, id)
	if err != nil || r.UserID != uid {
		if err == nil || errors.Is(err, model.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": booking.ErrNotFound.Error()})
		}
		h.Log.Error("reservations: get", "reservation_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}

	name := "Unknown"
	if s, err := h.Spaces.GetSpace(ctx, r.SpaceID); err == nil {
		name = s.Name
	} else if !errors.Is(err, model.ErrNotFound) {
		h.Log.Warn("reservations: space name lookup", "space_id", r.SpaceID, "err", err)
	}
	return c.JSON(http.StatusOK, reservationDetail{
		Reservation:   r,
		SpaceName:     name,
		DurationHours: math.Round(r.Duration().Hours()*100) / 100,
	})
}

// Cancel handles DELETE /v1/reservations/:id.
func (h *ReservationsHandler) Cancel(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	r, err := h.Booker.CancelReservation(ctx, id, uid)
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	h.Log.Info("reservation cancelled", "reservation_id", r.ID, "user_id", uid, "space_id", r.SpaceID)
	h.publish(ctx, queue.EventCancelled, r)
	return c.NoContent(http.StatusNoContent)
}

// UpcomingCount handles GET /v1/reservations/upcoming/count.
func (h *ReservationsHandler) UpcomingCount(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	n, err := h.Queries.CountUpcoming(ctx, uid, clockOrSystem(h.Clock).Now())
	if err != nil {
		h.Log.Error("reservations: count upcoming", "user_id", uid, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "count failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"upcoming_reservations": n})
}
