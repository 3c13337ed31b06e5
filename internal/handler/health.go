package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports process and dependency status for load balancers.
// Redis is optional: when it is nil the cache is reported as disabled.
type HealthHandler struct {
	Service string
	Env     string
	DB      Pinger
	Redis   *redis.Client
	Now     func() time.Time
}

func NewHealthHandler(service, env string, db Pinger, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{Service: service, Env: env, DB: db, Redis: rdb, Now: time.Now}
}

// Health handles GET /healthz.  It answers 503 when the database does not
// respond; a Redis failure only degrades the report.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	dbStatus := "disabled"
	if h.DB != nil {
		dbStatus = "connected"
		if err := h.DB.PingContext(ctx); err != nil {
			dbStatus = "disconnected"
		}
	}
	cacheStatus := "disabled"
	if h.Redis != nil {
		cacheStatus = "connected"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			cacheStatus = "disconnected"
		}
	}

	status, code := "healthy", http.StatusOK
	if dbStatus == "disconnected" {
		status, code = "unhealthy", http.StatusServiceUnavailable
	} else if cacheStatus == "disconnected" {
		status = "degraded"
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return c.JSON(code, echo.Map{
		"status":      status,
		"service":     h.Service,
		"timestamp":   now().UTC(),
		"environment": h.Env,
		"database":    dbStatus,
		"cache":       cacheStatus,
	})
}
