package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Esraa-27/flash-sale-api/internal/service"
)

// WriteError maps a service-layer error onto the HTTP response spec §7
// requires: Kind drives status code, Fields (when present) populates the
// 422 body's per-field messages.
func WriteError(c echo.Context, err error) error {
	svcErr, ok := err.(*service.Error)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}

	switch svcErr.Kind {
	case service.KindNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": svcErr.Message})
	case service.KindBadRequest:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": svcErr.Message})
	case service.KindValidation:
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": svcErr.Message, "errors": svcErr.Fields})
	case service.KindContention:
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": svcErr.Message})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": svcErr.Message})
	}
}

// writeValidationError responds 422 with a field error map built by the
// validation package, ahead of ever reaching the service layer.
func writeValidationError(c echo.Context, fields map[string][]string) error {
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "Validation failed", "errors": fields})
}
