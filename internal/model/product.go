package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog item a flash sale sells against. The core never
// creates or deletes products; it only reads stock and price. Stock is the
// immutable ceiling for every active hold on the product.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name, owned by the catalog (out of scope here).
//  Price     – non-negative unit price.
//  Stock     – non-negative total units the warehouse holds.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Product struct {
	ID        uint64          // products.id
	Name      string          // products.name
	Price     decimal.Decimal // products.price
	Stock     int64           // products.stock
	CreatedAt time.Time       // products.created_at
	UpdatedAt time.Time       // products.updated_at
}
