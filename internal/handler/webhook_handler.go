package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Esraa-27/flash-sale-api/internal/metrics"
	"github.com/Esraa-27/flash-sale-api/internal/model"
	"github.com/Esraa-27/flash-sale-api/internal/service"
	"github.com/Esraa-27/flash-sale-api/internal/validation"
)

// WebhookHandler serves POST /api/payments/webhook (spec §6).
type WebhookHandler struct {
	processor *service.WebhookProcessor
	metrics   *metrics.Metrics
}

// NewWebhookHandler builds a WebhookHandler.
func NewWebhookHandler(processor *service.WebhookProcessor, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{processor: processor, metrics: m}
}

// Process validates and applies a payment-provider webhook delivery.
func (h *WebhookHandler) Process(c echo.Context) error {
	var req validation.PaymentWebhookRequest
	if err := c.Bind(&req); err != nil {
		return WriteError(c, service.BadRequest("malformed request body"))
	}
	if fields := validation.Struct(req); fields != nil {
		return writeValidationError(c, fields)
	}

	status, ok := model.ParsePaymentStatus(req.Status)
	if !ok {
		return WriteError(c, service.BadRequest("invalid payment status"))
	}

	start := time.Now()
	result, err := h.processor.Process(c.Request().Context(), req.OrderID, req.IdempotencyKey, status)
	h.metrics.ObserveWebhookLatency(time.Since(start))
	if err != nil {
		return WriteError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"order_id": result.OrderID,
		"status":   result.Status,
	})
}
