package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"hwlock/api/handler"
	apiMiddleware "hwlock/api/middleware"
	"hwlock/api/routes"
	"hwlock/config"
	"hwlock/internal/entity"
	"hwlock/internal/repository"
	"hwlock/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("config")
	}

	db, err := config.ConnectDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("database")
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	productRepo := repository.NewProductRepository(db)
	licenseRepo := repository.NewLicenseRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	if err := seedProducts(productRepo); err != nil {
		logger.WithError(err).Fatal("product seed")
	}

	authService := service.NewAuthService(
		userRepo,
		sessionRepo,
		auditRepo,
		service.BcryptPasswordHasher{Cost: cfg.BcryptCost},
		service.RealClock{},
		service.AuthConfig{
			SessionTTL:            cfg.SessionTTL,
			MaxConcurrentSessions: cfg.MaxConcurrentSessions,
		},
	)
	licenseService := service.NewLicenseService(
		productRepo,
		licenseRepo,
		auditRepo,
		[]byte(cfg.ServerSecret),
		service.RealClock{},
	)

	validate := validator.New()
	authHandler := handler.NewAuthHandler(authService, validate)
	licenseHandler := handler.NewLicenseHandler(licenseService, validate)
	productHandler := handler.NewProductHandler(licenseService)

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authMiddleware := apiMiddleware.AuthMiddleware{Auth: authService}
	router := routes.NewRouter(app, authHandler, licenseHandler, productHandler, authMiddleware)
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithField("addr", cfg.HTTPAddr).Info("server started")
	if err := app.StartServer(server); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

func seedProducts(products repository.ProductRepository) error {
	ctx := context.Background()
	count, err := products.Count(ctx)
	if err != nil || count > 0 {
		return err
	}
	for _, product := range []entity.Product{
		{Code: "demo_free", Name: "Demo Free App", IsPaid: false},
		{Code: "demo_paid", Name: "Demo Paid App", IsPaid: true},
	} {
		if err := products.Create(ctx, &product); err != nil {
			return err
		}
	}
	return nil
}
