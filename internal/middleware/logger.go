package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestID tags every request with an X-Request-Id, generating a UUID
// when the client did not send one.
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	})
}

// RequestLogger writes one structured line per request.  5xx responses
// are logged at error level, 4xx at warn.
func RequestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			res := c.Response()
			attrs := []any{
				"method", c.Request().Method,
				"route", c.Path(),
				"uri", c.Request().RequestURI,
				"status", res.Status,
				"latency", time.Since(start),
				"bytes", res.Size,
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"remote_ip", c.RealIP(),
			}
			if uid, ok := CurrentUserID(c); ok {
				attrs = append(attrs, "user_id", uid)
			}
			switch {
			case res.Status >= 500:
				if err != nil {
					attrs = append(attrs, "err", err)
				}
				log.Error("request", attrs...)
			case res.Status >= 400:
				log.Warn("request", attrs...)
			default:
				log.Info("request", attrs...)
			}
			return nil
		}
	}
}
