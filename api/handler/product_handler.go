package handler

import (
	"net/http"

	"hwlock/internal/dto"
	"hwlock/internal/service"

	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	Service *service.LicenseService
}

func NewProductHandler(svc *service.LicenseService) *ProductHandler {
	return &ProductHandler{Service: svc}
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	product, err := h.Service.GetProduct(c.Request().Context(), c.Param("code"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ProductResponse{
		Code:   product.Code,
		Name:   product.Name,
		IsPaid: product.IsPaid,
	})
}
