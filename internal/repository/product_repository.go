package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Esraa-27/flash-sale-api/internal/model"
)

// productRow mirrors the products table for sqlx scanning.
type productRow struct {
	ID        uint64    `db:"id"`
	Name      string    `db:"name"`
	Price     string    `db:"price"`
	Stock     int64     `db:"stock"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (rec productRow) toModel() (*model.Product, error) {
	price, err := decimal.NewFromString(rec.Price)
	if err != nil {
		return nil, err
	}
	return &model.Product{
		ID:        rec.ID,
		Name:      rec.Name,
		Price:     price,
		Stock:     rec.Stock,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// ProductRepo provides read access to products and the exclusive row lock
// create_with_validation takes out before computing available stock
// (spec §4.6 step 1).
type ProductRepo struct {
	db *sqlx.DB
}

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// GetByID performs a plain, unlocked read of a product. Used by the
// available-stock view and the product HTTP endpoint.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	const q = `SELECT id, name, price, stock, created_at, updated_at FROM products WHERE id = ?`
	p, err := scanProduct(r.db.QueryRowxContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetForUpdateTx locks the product row exclusively for the duration of tx
// (spec §4.1 select_for_update), so that every available-stock check for
// this product under a concurrent hold creation is linearized.
func (r *ProductRepo) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uint64) (*model.Product, error) {
	const q = `SELECT id, name, price, stock, created_at, updated_at FROM products WHERE id = ? FOR UPDATE`
	p, err := scanProduct(tx.QueryRowxContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanProduct(row *sqlx.Row) (*model.Product, error) {
	var rec productRow
	if err := row.StructScan(&rec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec.toModel()
}
