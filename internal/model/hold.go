package model

import "time"

// Hold is a time-bounded, non-consuming reservation of a quantity of a
// product. Holds prevent concurrent order attempts from drawing down stock
// that is already promised to someone else while they complete checkout.
// A hold is exactly-once-use: once IsUsed flips true it only reverts to
// false when an order built from it fails payment (see spec §3).
//
// Fields:
//  ID        – primary key identifier.
//  ProductID – product this hold reserves quantity against.
//  Quantity  – positive number of units held.
//  ExpiresAt – when the hold stops counting toward active stock.
//  IsUsed    – true once consumed by an order, or swept as expired.
//  CreatedAt – creation timestamp.
type Hold struct {
	ID        uint64    // holds.id
	ProductID uint64    // holds.product_id
	Quantity  int64     // holds.quantity
	ExpiresAt time.Time // holds.expires_at
	IsUsed    bool      // holds.is_used
	CreatedAt time.Time // holds.created_at
}
