package handler

import (
	"errors"
	"net/http"

	"hwlock/api/middleware"
	"hwlock/internal/dto"
	"hwlock/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	Service  *service.AuthService
	Validate *validator.Validate
}

func NewAuthHandler(svc *service.AuthService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{Service: svc, Validate: validate}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	user, err := h.Service.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.RegisterResponse{OK: true, Email: user.Email})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	result, err := h.Service.Login(c.Request().Context(), req.Email, req.Password, req.HWIDHash, stringPtr(c.RealIP()))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken:      result.Token,
		UserEmail:        result.User.Email,
		SessionExpiresAt: result.ExpiresAt,
	})
}

// Logout always answers ok to an authenticated caller: the transition is
// idempotent server-side, and the client tears down locally regardless.
func (h *AuthHandler) Logout(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	if err := h.Service.Logout(c.Request().Context(), session.ID, &user.ID, stringPtr(c.RealIP())); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.LogoutResponse{OK: true})
}

func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	return c.JSON(http.StatusOK, dto.SessionMeResponse{
		Email:      user.Email,
		HWIDHash:   session.HWIDHash,
		CreatedAt:  session.CreatedAt,
		LastSeenAt: session.LastSeenAt,
		IsActive:   session.IsActive,
	})
}

func (h *AuthHandler) AdminRevokeUserSessions(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid user id"))
	}
	if err := h.Service.RevokeUserSessions(c.Request().Context(), userID, stringPtr(c.RealIP())); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}
