package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Esraa-27/flash-sale-api/internal/service"
	"github.com/Esraa-27/flash-sale-api/internal/validation"
)

// OrderHandler serves POST /api/orders (spec §6).
type OrderHandler struct {
	orders *service.OrderManager
}

// NewOrderHandler builds an OrderHandler.
func NewOrderHandler(orders *service.OrderManager) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create converts a hold into a pending order.
func (h *OrderHandler) Create(c echo.Context) error {
	var req validation.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return WriteError(c, service.BadRequest("malformed request body"))
	}
	if fields := validation.Struct(req); fields != nil {
		return writeValidationError(c, fields)
	}

	order, err := h.orders.CreateFromHold(c.Request().Context(), req.HoldID)
	if err != nil {
		return WriteError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"order_id": order.ID,
		"hold_id":  order.HoldID,
		"status":   order.Status,
	})
}
