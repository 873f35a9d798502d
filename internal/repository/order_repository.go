package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Esraa-27/flash-sale-api/internal/model"
)

type orderRow struct {
	ID        uint64    `db:"id"`
	HoldID    uint64    `db:"hold_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

func (r orderRow) toModel() *model.Order {
	return &model.Order{ID: r.ID, HoldID: r.HoldID, Status: model.OrderStatus(r.Status), CreatedAt: r.CreatedAt}
}

// OrderRepo provides CRUD for orders. Grounded on the teacher's
// ReservationRepo, generalized from a multi-seat reservation to a
// single-hold order.
type OrderRepo struct {
	db *sqlx.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// CreateTx inserts a pending order for holdID (spec §4.7 step 4).
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, holdID uint64) (*model.Order, error) {
	const insert = `INSERT INTO orders (hold_id, status) VALUES (?, ?)`
	res, err := tx.ExecContext(ctx, insert, holdID, model.OrderPending)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	var row orderRow
	const sel = `SELECT id, hold_id, status, created_at FROM orders WHERE id = ?`
	if err := tx.GetContext(ctx, &row, sel, id); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// GetByID performs a plain, unlocked read.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	const q = `SELECT id, hold_id, status, created_at FROM orders WHERE id = ?`
	var row orderRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

// GetForUpdateTx locks the order row exclusively within tx, used by the
// webhook processor while transitioning status.
func (r *OrderRepo) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uint64) (*model.Order, error) {
	const q = `SELECT id, hold_id, status, created_at FROM orders WHERE id = ? FOR UPDATE`
	var row orderRow
	if err := tx.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

// SetStatusTx updates an order's status within tx (spec §4.7 mark_paid /
// cancel, and §4.8 step 3d).
func (r *OrderRepo) SetStatusTx(ctx context.Context, tx *sqlx.Tx, id uint64, status model.OrderStatus) error {
	const q = `UPDATE orders SET status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, id)
	return err
}
