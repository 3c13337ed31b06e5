package middleware // reusable HTTP middleware for the echo server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/utils"
)

// Context keys set by JWTAuth.
const (
	KeyUserID  = "user_id"
	KeyEmail   = "email"
	KeyIsAdmin = "is_admin"
)

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

// JWTAuth validates a Bearer access token and stores the caller's id
// (uint64), email and admin flag in the context.  Requests without a
// valid token get 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			uid, _ := claims.UserID()
			c.Set(KeyUserID, uid)
			c.Set(KeyEmail, claims.Email)
			c.Set(KeyIsAdmin, claims.IsAdmin)
			return next(c)
		}
	}
}

// RequireAdmin rejects callers whose token lacks is_admin with 403.  It
// must run after JWTAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if admin, ok := c.Get(KeyIsAdmin).(bool); !ok || !admin {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin privileges required"})
			}
			return next(c)
		}
	}
}

// CurrentUserID returns the id stored by JWTAuth.
func CurrentUserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(KeyUserID).(uint64)
	return id, ok && id != 0
}
