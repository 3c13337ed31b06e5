package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
)

// SpacesHandler serves the space catalog and the availability check.
// Directory is the cached lookup used for single spaces; Catalog is the
// backing store used for listings and admin writes.
type SpacesHandler struct {
	Catalog   SpaceCatalog
	Directory booking.SpaceDirectory
	Booker    Booker
	// Cache is told about every admin write.  Optional.
	Cache SpaceInvalidator
	// PurgeListings drops cached listing responses.  Optional.
	PurgeListings func(ctx context.Context) error
	Clock         booking.Clock
	Log           *slog.Logger
}

func NewSpacesHandler(catalog SpaceCatalog, directory booking.SpaceDirectory, booker Booker, log *slog.Logger) *SpacesHandler {
	if catalog == nil || booker == nil {
		panic("nil dependency passed to NewSpacesHandler")
	}
	if directory == nil {
		directory = catalog
	}
	return &SpacesHandler{Catalog: catalog, Directory: directory, Booker: booker, Log: loggerOrDefault(log)}
}

type spaceReq struct {
	Name              string   `json:"name"`
	Description       *string  `json:"description"`
	Capacity          uint32   `json:"capacity"`
	Location          *string  `json:"location"`
	Amenities         []string `json:"amenities"`
	PricePerHourCents int64    `json:"price_per_hour_cents"`
	IsActive          *bool    `json:"is_active"`
}

func parseFilter(c echo.Context) (model.SpaceFilter, error) {
	var f model.SpaceFilter
	if v := strings.TrimSpace(c.QueryParam("is_active")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.New("is_active must be a boolean")
		}
		f.IsActive = &b
	}
	for _, p := range []struct {
		name string
		dst  **uint32
	}{{"min_capacity", &f.MinCapacity}, {"max_capacity", &f.MaxCapacity}} {
		v := strings.TrimSpace(c.QueryParam(p.name))
		if v == "" {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return f, errors.New(p.name + " must be a non-negative integer")
		}
		u := uint32(n)
		*p.dst = &u
	}
	f.Amenity = strings.TrimSpace(c.QueryParam("amenity"))
	return f, nil
}

// List handles GET /v1/spaces.
func (h *SpacesHandler) List(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	spaces, err := h.Catalog.List(ctx, f)
	if err != nil {
		h.Log.Error("spaces: list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list spaces failed"})
	}
	if spaces == nil {
		spaces = []model.Space{}
	}
	return c.JSON(http.StatusOK, spaces)
}

func (h *SpacesHandler) lookup(c echo.Context, id uint64) (model.Space, bool, error) {
	ctx, cancel := dbCtx(c)
	defer cancel()
	s, err := h.Directory.GetSpace(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return s, false, c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
		}
		if errors.Is(err, booking.ErrStoreUnavailable) {
			return s, false, c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service temporarily unavailable"})
		}
		h.Log.Error("spaces: lookup", "space_id", id, "err", err)
		return s, false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "load space failed"})
	}
	return s, true, nil
}

// Get handles GET /v1/spaces/:id.
func (h *SpacesHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
	}
	s, ok, err := h.lookup(c, id)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

func parseWindow(c echo.Context) (time.Time, time.Time, error) {
	rawStart, rawEnd := c.QueryParam("start_time"), c.QueryParam("end_time")
	if rawStart == "" || rawEnd == "" {
		return time.Time{}, time.Time{}, errors.New("start_time and end_time are required")
	}
	start, err := time.Parse(time.RFC3339, rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start_time must be RFC 3339")
	}
	end, err := time.Parse(time.RFC3339, rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end_time must be RFC 3339")
	}
	return start.UTC(), end.UTC(), nil
}

// Availability handles GET /v1/spaces/:id/availability.  It answers for
// active spaces and future windows only.
func (h *SpacesHandler) Availability(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
	}
	start, end, err := parseWindow(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if !end.After(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": booking.ErrInvalidInterval.Error()})
	}
	if start.Before(clockOrSystem(h.Clock).Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot check availability in the past"})
	}

	s, ok, err := h.lookup(c, id)
	if !ok {
		return err
	}
	if !s.IsActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "space is not active"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	available, conflicts, err := h.Booker.CheckAvailability(ctx, id, start, end, 0)
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"space_id":   id,
		"start_time": start,
		"end_time":   end,
		"available":  available,
		"conflicts":  conflictViews(conflicts),
	})
}

func validateSpace(name string, price int64) error {
	n := len(strings.TrimSpace(name))
	if n == 0 || n > 255 {
		return errors.New("name must be between 1 and 255 characters")
	}
	if price < 0 {
		return errors.New("price_per_hour_cents must not be negative")
	}
	return nil
}

// afterWrite drops cached copies of space id.  Failures only log: entries
// expire on their own.
func (h *SpacesHandler) afterWrite(ctx context.Context, id uint64) {
	if h.Cache != nil && id != 0 {
		if err := h.Cache.Invalidate(ctx, id); err != nil {
			h.Log.Warn("spaces: invalidate cached space", "space_id", id, "err", err)
		}
	}
	if h.PurgeListings != nil {
		if err := h.PurgeListings(ctx); err != nil {
			h.Log.Warn("spaces: purge cached listings", "err", err)
		}
	}
}

// Create handles POST /v1/spaces (admin).
func (h *SpacesHandler) Create(c echo.Context) error {
	var req spaceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validateSpace(req.Name, req.PricePerHourCents); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}
	s := model.Space{
		Name:              strings.TrimSpace(req.Name),
		Description:       req.Description,
		Capacity:          req.Capacity,
		Location:          req.Location,
		Amenities:         req.Amenities,
		PricePerHourCents: req.PricePerHourCents,
		IsActive:          req.IsActive == nil || *req.IsActive,
	}
	if s.Amenities == nil {
		s.Amenities = []string{}
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Catalog.Create(ctx, &s); err != nil {
		h.Log.Error("spaces: create", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create space failed"})
	}
	h.afterWrite(ctx, 0)
	h.Log.Info("space created", "space_id", s.ID)
	return c.JSON(http.StatusCreated, s)
}

// Update handles PUT /v1/spaces/:id (admin).  Only the fields present in
// the body change.
func (h *SpacesHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
	}
	var u model.SpaceUpdate
	if err := c.Bind(&u); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if u.Empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}
	if u.Name != nil {
		if err := validateSpace(*u.Name, 0); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}
	if u.PricePerHourCents != nil && *u.PricePerHourCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_per_hour_cents must not be negative"})
	}
	if u.Capacity != nil && *u.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	s, err := h.Catalog.Update(ctx, id, u)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
		}
		h.Log.Error("spaces: update", "space_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update space failed"})
	}
	h.afterWrite(ctx, id)
	h.Log.Info("space updated", "space_id", id)
	return c.JSON(http.StatusOK, s)
}
