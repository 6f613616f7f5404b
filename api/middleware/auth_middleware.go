package middleware

import (
	"errors"
	"net/http"
	"strings"

	"hwlock/internal/service"

	"github.com/labstack/echo/v4"
)

type AuthMiddleware struct {
	Auth *service.AuthService
}

// RequireAuth resolves the opaque bearer token to a live session. Every
// authenticated call goes through the touch path, so the inactivity window
// slides here and nowhere else.
func (m AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.Auth == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		token := extractBearerToken(c.Request())
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		}
		session, user, err := m.Auth.Touch(c.Request().Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrSessionExpired):
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			case errors.Is(err, service.ErrInvalidSession), errors.Is(err, service.ErrUserNotFound):
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}
			return echo.NewHTTPError(http.StatusServiceUnavailable, "temporarily unavailable, retry later")
		}
		SetAuthContext(c, user, session)
		return next(c)
	}
}

func extractBearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
