package model

import "time"

// PaymentStatus is the tagged-variant enum a webhook reports.
type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// ParsePaymentStatus maps a raw webhook status string onto the enum,
// failing closed on anything else so the caller can surface a 400.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	switch PaymentStatus(raw) {
	case PaymentSuccess, PaymentFailed:
		return PaymentStatus(raw), true
	default:
		return "", false
	}
}

// Payment is the durable record of one processed webhook delivery. The
// idempotency_key unique constraint is the hard safeguard against
// double-processing a retried delivery; rows are never updated.
//
// Fields:
//  ID             – primary key identifier.
//  OrderID        – order this payment notification concerns.
//  IdempotencyKey – opaque, globally unique key supplied by the provider.
//  Status         – success or failed, as reported by the provider.
//  CreatedAt      – creation timestamp.
type Payment struct {
	ID             uint64        // payments.id
	OrderID        uint64        // payments.order_id
	IdempotencyKey string        // payments.idempotency_key
	Status         PaymentStatus // payments.status
	CreatedAt      time.Time     // payments.created_at
}
