package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/config"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/handler"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/middleware"
)

// Handlers are the route groups a process can serve.  A nil handler's
// group is not mounted.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Users        *handler.UsersHandler
	Spaces       *handler.SpacesHandler
	Reservations *handler.ReservationsHandler
}

// Options carries the shared middleware.  Nil middleware is skipped.
type Options struct {
	// RateLimit wraps every /v1 group.
	RateLimit echo.MiddlewareFunc
	// ResponseCache wraps the public space reads.
	ResponseCache echo.MiddlewareFunc
}

func chain(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes mounts /healthz and every group cfg.Service selects.
func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers, opts Options) {
	if h.Health != nil {
		e.GET("/healthz", h.Health.Health)
	}
	if h.Auth != nil && cfg.Serves("auth") {
		RegisterAuth(e, h.Auth, cfg.JWTSecret, opts)
	}
	if h.Users != nil && cfg.Serves("users") {
		RegisterUsers(e, h.Users, cfg.JWTSecret, opts)
	}
	if h.Spaces != nil && cfg.Serves("spaces") {
		RegisterSpaces(e, h.Spaces, cfg.JWTSecret, opts)
	}
	if h.Reservations != nil && cfg.Serves("reservations") {
		RegisterReservations(e, h.Reservations, cfg.JWTSecret, opts)
	}
}

// RegisterAuth mounts /v1/auth.  Register, login, refresh, logout and
// validate need no session; /me needs a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, opts Options) {
	g := e.Group("/v1/auth", chain(opts.RateLimit)...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.POST("/validate", a.Validate)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterUsers mounts the caller's profile endpoints.
func RegisterUsers(e *echo.Echo, u *handler.UsersHandler, jwtSecret string, opts Options) {
	g := e.Group("/v1/users", chain(middleware.JWTAuth(jwtSecret), opts.RateLimit)...)
	g.GET("/me", u.GetMe)
	g.PUT("/me", u.UpdateMe)
	g.DELETE("/me", u.DeleteMe)
	g.GET("/me/stats", u.Stats)
}

// RegisterSpaces mounts the public catalog and the admin writes.
func RegisterSpaces(e *echo.Echo, s *handler.SpacesHandler, jwtSecret string, opts Options) {
	g := e.Group("/v1/spaces", chain(opts.RateLimit)...)
	cached := chain(opts.ResponseCache)
	g.GET("", s.List, cached...)
	g.GET("/:id", s.Get)
	g.GET("/:id/availability", s.Availability)

	admin := chain(middleware.JWTAuth(jwtSecret), middleware.RequireAdmin())
	g.POST("", s.Create, admin...)
	g.PUT("/:id", s.Update, admin...)
}

// RegisterReservations mounts the caller's reservations.
func RegisterReservations(e *echo.Echo, r *handler.ReservationsHandler, jwtSecret string, opts Options) {
	g := e.Group("/v1/reservations", chain(middleware.JWTAuth(jwtSecret), opts.RateLimit)...)
	g.POST("", r.Create)
	g.GET("", r.List)
	g.GET("/upcoming/count", r.UpcomingCount)
	g.GET("/:id", r.Get)
	g.DELETE("/:id", r.Cancel)
}
