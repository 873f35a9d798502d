package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Esraa-27/flash-sale-api/internal/validation"
)

func TestStruct_CreateHoldRequest(t *testing.T) {
	fields := validation.Struct(validation.CreateHoldRequest{ProductID: 1, Qty: 2})
	assert.Nil(t, fields)

	fields = validation.Struct(validation.CreateHoldRequest{ProductID: 1, Qty: 0})
	assert.NotNil(t, fields)
	assert.Contains(t, fields, "qty")
}

func TestStruct_PaymentWebhookRequest(t *testing.T) {
	fields := validation.Struct(validation.PaymentWebhookRequest{
		OrderID:        1,
		IdempotencyKey: "k",
		Status:         "success",
	})
	assert.Nil(t, fields)

	// An unrecognized-but-present status is a 400 decided by
	// model.ParsePaymentStatus, not a 422 schema violation here.
	fields = validation.Struct(validation.PaymentWebhookRequest{
		OrderID:        1,
		IdempotencyKey: "k",
		Status:         "bogus",
	})
	assert.Nil(t, fields)

	fields = validation.Struct(validation.PaymentWebhookRequest{
		OrderID:        1,
		IdempotencyKey: "k",
		Status:         "",
	})
	assert.NotNil(t, fields)
	assert.Contains(t, fields, "status")
}
