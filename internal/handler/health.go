package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports liveness. Grounded on the teacher's handler.Health.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
