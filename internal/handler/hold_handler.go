package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Esraa-27/flash-sale-api/internal/metrics"
	"github.com/Esraa-27/flash-sale-api/internal/service"
	"github.com/Esraa-27/flash-sale-api/internal/validation"
)

// HoldHandler serves POST /api/holds (spec §6).
type HoldHandler struct {
	holds   *service.HoldManager
	metrics *metrics.Metrics
}

// NewHoldHandler builds a HoldHandler.
func NewHoldHandler(holds *service.HoldManager, m *metrics.Metrics) *HoldHandler {
	return &HoldHandler{holds: holds, metrics: m}
}

// Create validates and creates a hold, timing the request for the
// hold-creation latency ring (spec §4.4).
func (h *HoldHandler) Create(c echo.Context) error {
	var req validation.CreateHoldRequest
	if err := c.Bind(&req); err != nil {
		return WriteError(c, service.BadRequest("malformed request body"))
	}
	if fields := validation.Struct(req); fields != nil {
		return writeValidationError(c, fields)
	}

	start := time.Now()
	hold, err := h.holds.Create(c.Request().Context(), req.ProductID, req.Qty)
	h.metrics.ObserveHoldLatency(time.Since(start))
	if err != nil {
		return WriteError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"hold_id":    hold.ID,
		"product_id": hold.ProductID,
		"quantity":   hold.Quantity,
		"expires_at": hold.ExpiresAt.Format(time.RFC3339),
	})
}
