package routes

import (
	"net/http"
	"time"

	"hwlock/api/handler"
	"hwlock/api/middleware"
	"hwlock/internal/entity"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	License        *handler.LicenseHandler
	Product        *handler.ProductHandler
	AuthMiddleware middleware.AuthMiddleware
	AuthRate       *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter
}

func NewRouter(
	e *echo.Echo,
	authHandler *handler.AuthHandler,
	licenseHandler *handler.LicenseHandler,
	productHandler *handler.ProductHandler,
	authMiddleware middleware.AuthMiddleware,
) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		License:        licenseHandler,
		Product:        productHandler,
		AuthMiddleware: authMiddleware,
		AuthRate:       middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	e.POST("/auth/register", r.Auth.Register, r.AuthRate.Middleware())
	e.POST("/auth/login", r.Auth.Login, r.LoginRate.Middleware())
	e.POST("/auth/logout", r.Auth.Logout, r.AuthMiddleware.RequireAuth)

	e.GET("/session/me", r.Auth.Me, r.AuthMiddleware.RequireAuth)

	e.GET("/products/:code", r.Product.GetProduct)

	e.POST("/license/redeem", r.License.Redeem, r.AuthMiddleware.RequireAuth)
	e.POST("/license/validate", r.License.Validate, r.AuthMiddleware.RequireAuth)

	e.POST("/admin/licenses/revoke", r.License.AdminRevoke,
		r.AuthMiddleware.RequireAuth, middleware.RequireRole(entity.UserRoleAdmin))
	e.POST("/admin/users/:id/revoke-sessions", r.Auth.AdminRevokeUserSessions,
		r.AuthMiddleware.RequireAuth, middleware.RequireRole(entity.UserRoleAdmin))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})
}
