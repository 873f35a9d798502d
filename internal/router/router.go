// Package router wires HTTP routes to handlers (spec §6 HTTP surface).
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Esraa-27/flash-sale-api/internal/handler"
)

// Register mounts every endpoint the core exposes.
func Register(e *echo.Echo, products *handler.ProductHandler, holds *handler.HoldHandler, orders *handler.OrderHandler, webhooks *handler.WebhookHandler) {
	e.GET("/healthz", handler.Health)

	api := e.Group("/api")
	api.GET("/products/:id", products.Show)
	api.POST("/holds", holds.Create)
	api.POST("/orders", orders.Create)
	api.POST("/payments/webhook", webhooks.Process)
}
