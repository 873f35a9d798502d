package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Esraa-27/flash-sale-api/internal/model"
)

type holdRow struct {
	ID        uint64    `db:"id"`
	ProductID uint64    `db:"product_id"`
	Quantity  int64     `db:"quantity"`
	ExpiresAt time.Time `db:"expires_at"`
	IsUsed    bool      `db:"is_used"`
	CreatedAt time.Time `db:"created_at"`
}

func (r holdRow) toModel() *model.Hold {
	return &model.Hold{
		ID:        r.ID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		ExpiresAt: r.ExpiresAt,
		IsUsed:    r.IsUsed,
		CreatedAt: r.CreatedAt,
	}
}

// HoldRepo provides data access to the holds table: creation, the
// active-stock sum, exclusive locking for the order manager, release and
// the expiry sweep. Grounded on the teacher's SeatHoldRepo.
type HoldRepo struct {
	db *sqlx.DB
}

// NewHoldRepo returns a new HoldRepo bound to the given database.
func NewHoldRepo(db *sqlx.DB) *HoldRepo { return &HoldRepo{db: db} }

// SumActiveQuantityTx sums the quantity of holds on productID that are
// neither used nor expired as of now, under whatever lock the caller
// already holds on the product row (spec §3 derived value,
// available_stock). Must run inside the same transaction that locked the
// product so the read is linearized with concurrent hold creation.
func (r *HoldRepo) SumActiveQuantityTx(ctx context.Context, tx *sqlx.Tx, productID uint64, now time.Time) (int64, error) {
	const q = `SELECT COALESCE(SUM(quantity), 0) FROM holds WHERE product_id = ? AND is_used = 0 AND expires_at > ?`
	var sum int64
	if err := tx.GetContext(ctx, &sum, q, productID, now); err != nil {
		return 0, err
	}
	return sum, nil
}

// SumActiveQuantity is the unlocked counterpart used by the pure
// available-stock view (spec §4.2), which never takes a lock of its own.
func (r *HoldRepo) SumActiveQuantity(ctx context.Context, productID uint64, now time.Time) (int64, error) {
	const q = `SELECT COALESCE(SUM(quantity), 0) FROM holds WHERE product_id = ? AND is_used = 0 AND expires_at > ?`
	var sum int64
	if err := r.db.GetContext(ctx, &sum, q, productID, now); err != nil {
		return 0, err
	}
	return sum, nil
}

// CreateTx inserts a new hold within tx, populating the generated ID and
// created_at on return.
func (r *HoldRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, productID uint64, quantity int64, expiresAt time.Time) (*model.Hold, error) {
	const insert = `INSERT INTO holds (product_id, quantity, expires_at, is_used) VALUES (?, ?, ?, 0)`
	res, err := tx.ExecContext(ctx, insert, productID, quantity, expiresAt)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	var row holdRow
	const sel = `SELECT id, product_id, quantity, expires_at, is_used, created_at FROM holds WHERE id = ?`
	if err := tx.GetContext(ctx, &row, sel, id); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// GetForUpdateTx locks the hold row exclusively for the duration of tx
// (spec §4.7 step 1: exclusive-lock the hold row).
func (r *HoldRepo) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uint64) (*model.Hold, error) {
	const q = `SELECT id, product_id, quantity, expires_at, is_used, created_at FROM holds WHERE id = ? FOR UPDATE`
	var row holdRow
	if err := tx.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

// GetByID performs a plain, unlocked read — used by HoldManager.Release and
// by OrderManager.Cancel after its transaction commits, to find the hold's
// product for cache invalidation.
func (r *HoldRepo) GetByID(ctx context.Context, id uint64) (*model.Hold, error) {
	const q = `SELECT id, product_id, quantity, expires_at, is_used, created_at FROM holds WHERE id = ?`
	var row holdRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

// MarkUsedTx flips is_used to true (spec §4.7 step 5). The expiry sweep
// uses MarkUsedIfStillActiveTx instead.
func (r *HoldRepo) MarkUsedTx(ctx context.Context, tx *sqlx.Tx, id uint64) error {
	const q = `UPDATE holds SET is_used = 1 WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

// ReleaseTx flips is_used back to false (spec §4.6 release, and §4.8 step
// 3d on a failed payment). This is the one legal reversion of the
// exactly-once-use invariant.
func (r *HoldRepo) ReleaseTx(ctx context.Context, tx *sqlx.Tx, id uint64) error {
	const q = `UPDATE holds SET is_used = 0 WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

// Release is the non-transactional form used by HoldManager.release, which
// is not part of a larger multi-row transaction of its own.
func (r *HoldRepo) Release(ctx context.Context, id uint64) error {
	const q = `UPDATE holds SET is_used = 0 WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// ExpiredSweepBatch selects every hold that is past expiry and still
// marked active, for the expiry sweep (spec §4.6 expiry_sweep) to
// transition. Runs outside any request transaction at call time but is
// itself wrapped in the sweep's own retryable transaction.
func (r *HoldRepo) ExpiredSweepBatch(ctx context.Context, tx *sqlx.Tx, now time.Time) ([]*model.Hold, error) {
	const q = `SELECT id, product_id, quantity, expires_at, is_used, created_at FROM holds WHERE expires_at <= ? AND is_used = 0 FOR UPDATE`
	var rows []holdRow
	if err := tx.SelectContext(ctx, &rows, q, now); err != nil {
		return nil, err
	}
	holds := make([]*model.Hold, 0, len(rows))
	for _, row := range rows {
		holds = append(holds, row.toModel())
	}
	return holds, nil
}

// MarkUsedIfStillActiveTx performs the idempotent update
// expiry_sweep needs: it only flips rows still is_used=0, so a
// concurrently-confirmed hold (now is_used=1 via create_from_hold) is left
// untouched. Returns the number of rows actually transitioned.
func (r *HoldRepo) MarkUsedIfStillActiveTx(ctx context.Context, tx *sqlx.Tx, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`UPDATE holds SET is_used = 1 WHERE is_used = 0 AND id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	query = tx.Rebind(query)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
