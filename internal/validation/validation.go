// Package validation tags and validates incoming HTTP request bodies
// with go-playground/validator, converting failures into the
// {field: [message, ...]} shape spec §6 requires for 422 responses.
package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateHoldRequest is the body of POST /api/holds.
type CreateHoldRequest struct {
	ProductID uint64 `json:"product_id" validate:"required"`
	Qty       int64  `json:"qty" validate:"required,gt=0"`
}

// CreateOrderRequest is the body of POST /api/orders.
type CreateOrderRequest struct {
	HoldID uint64 `json:"hold_id" validate:"required"`
}

// PaymentWebhookRequest is the body of POST /api/payments/webhook.
type PaymentWebhookRequest struct {
	OrderID        uint64 `json:"order_id" validate:"required"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
	Status         string `json:"status" validate:"required"`
}

// Struct validates req and, on failure, returns a field->messages map
// suitable for the 422 response body. A nil return means req is valid.
func Struct(req interface{}) map[string][]string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	fields := map[string][]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			name := strings.ToLower(fe.Field())
			fields[name] = append(fields[name], message(fe))
		}
		return fields
	}
	fields["_"] = []string{err.Error()}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", strings.ToLower(fe.Field()), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
	}
}
