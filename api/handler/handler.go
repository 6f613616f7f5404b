package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"hwlock/internal/service"

	"github.com/labstack/echo/v4"
)

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"message": err.Error()})
}

// writeServiceError maps service sentinels to HTTP statuses. Anything it
// does not recognize is a store/transport failure and surfaces as a generic
// retryable condition, never as request detail.
func writeServiceError(c echo.Context, err error) error {
	status := http.StatusServiceUnavailable
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrProductFree),
		errors.Is(err, service.ErrHWIDMismatchSession),
		errors.Is(err, service.ErrLicenseProductMismatch),
		errors.Is(err, service.ErrLicenseInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, service.ErrSessionExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrActiveSessionExists),
		errors.Is(err, service.ErrLicenseRevoked),
		errors.Is(err, service.ErrHWIDChanged):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrLicenseNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrEmailAlreadyRegistered),
		errors.Is(err, service.ErrAlreadyRedeemed):
		status = http.StatusConflict
	}
	if status == http.StatusServiceUnavailable {
		return writeError(c, status, errors.New("temporarily unavailable, retry later"))
	}
	return writeError(c, status, err)
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
