package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/Esraa-27/flash-sale-api/internal/model"
)

type paymentRow struct {
	ID             uint64    `db:"id"`
	OrderID        uint64    `db:"order_id"`
	IdempotencyKey string    `db:"idempotency_key"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r paymentRow) toModel() *model.Payment {
	return &model.Payment{
		ID:             r.ID,
		OrderID:        r.OrderID,
		IdempotencyKey: r.IdempotencyKey,
		Status:         model.PaymentStatus(r.Status),
		CreatedAt:      r.CreatedAt,
	}
}

// PaymentRepo provides CRUD for payments, the idempotency ledger the
// webhook processor probes before and during its transaction (spec §4.8).
// Grounded on the webhook idempotency repository pattern retrieved from
// the pack (duclm31099-bookstore-backend's payment webhook log).
type PaymentRepo struct {
	db *sqlx.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// FindByIdempotencyKey is the fast-path idempotency probe (spec §4.8 step
// 1), run outside any transaction.
func (r *PaymentRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.Payment, error) {
	const q = `SELECT id, order_id, idempotency_key, status, created_at FROM payments WHERE idempotency_key = ?`
	var row paymentRow
	if err := r.db.GetContext(ctx, &row, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

// FindByIdempotencyKeyTx is the in-transaction re-probe (spec §4.8 step
// 3b), closing the race window between the fast-path probe and the
// insert below.
func (r *PaymentRepo) FindByIdempotencyKeyTx(ctx context.Context, tx *sqlx.Tx, key string) (*model.Payment, error) {
	const q = `SELECT id, order_id, idempotency_key, status, created_at FROM payments WHERE idempotency_key = ?`
	var row paymentRow
	if err := tx.GetContext(ctx, &row, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

// CreateTx inserts a payment row (spec §4.8 step 3c). A UNIQUE constraint
// violation on idempotency_key surfaces as ErrDuplicateKey so the caller
// can fall back to the pre-existing row instead of failing the request.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, orderID uint64, key string, status model.PaymentStatus) (*model.Payment, error) {
	const insert = `INSERT INTO payments (order_id, idempotency_key, status) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, insert, orderID, key, status)
	if err != nil {
		if isDuplicateKeyErr(err) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	var row paymentRow
	const sel = `SELECT id, order_id, idempotency_key, status, created_at FROM payments WHERE id = ?`
	if err := tx.GetContext(ctx, &row, sel, id); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func isDuplicateKeyErr(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062 // ER_DUP_ENTRY
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate entry")
}
