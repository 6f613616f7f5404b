package handler

import (
	"errors"
	"net/http"

	"hwlock/api/middleware"
	"hwlock/internal/dto"
	"hwlock/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type LicenseHandler struct {
	Service   *service.LicenseService
	Validator *validator.Validate
}

func NewLicenseHandler(svc *service.LicenseService, validate *validator.Validate) *LicenseHandler {
	return &LicenseHandler{Service: svc, Validator: validate}
}

func (h *LicenseHandler) Redeem(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}

	var req dto.RedeemRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}

	result, err := h.Service.Redeem(c.Request().Context(), user, session, req.ProductCode, req.LicenseCode, req.HWIDHash, stringPtr(c.RealIP()))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.RedeemResponse{
		OK:            true,
		ProductCode:   result.ProductCode,
		ExpiresAt:     result.ExpiresAt,
		BoundHWIDHash: result.BoundHWIDHash,
	})
}

func (h *LicenseHandler) Validate(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}

	var req dto.ValidateRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}

	result, err := h.Service.Validate(c.Request().Context(), user, session, req.ProductCode, req.HWIDHash)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ValidateResponse{
		Valid:       result.Valid,
		ProductCode: result.ProductCode,
		Reason:      result.Reason,
		ExpiresAt:   result.ExpiresAt,
	})
}

func (h *LicenseHandler) AdminRevoke(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}

	var req dto.RevokeLicenseRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}

	if _, err := h.Service.Revoke(c.Request().Context(), req.LicenseCode, req.Reason, &user.ID, stringPtr(c.RealIP())); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LicenseHandler) validate(payload any) error {
	if h.Validator == nil {
		return nil
	}
	return h.Validator.Struct(payload)
}
