package middleware

import (
	"net/http"

	"hwlock/internal/entity"

	"github.com/labstack/echo/v4"
)

func RequireRole(role entity.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := UserFromContext(c)
			if !ok || user.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
