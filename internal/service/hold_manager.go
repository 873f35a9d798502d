package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Esraa-27/flash-sale-api/internal/metrics"
	"github.com/Esraa-27/flash-sale-api/internal/model"
	"github.com/Esraa-27/flash-sale-api/internal/repository"
	"github.com/Esraa-27/flash-sale-api/internal/retry"
)

// HoldManager owns the hold lifecycle: create_with_validation, release and
// the expiry sweep (spec §4.6). Create and SweepExpired run inside a
// transaction under the deadlock-retry wrapper; Release is a single
// unconditional update with no retry. Each invalidates the stock cache on
// success.
type HoldManager struct {
	db       *sqlx.DB
	products *repository.ProductRepo
	holds    *repository.HoldRepo
	stock    *StockView
	metrics  *metrics.Metrics
	ttl      time.Duration
}

// NewHoldManager builds a HoldManager. ttl is the lifetime newly created
// holds are given (spec §3 Hold.expires_at).
func NewHoldManager(db *sqlx.DB, products *repository.ProductRepo, holds *repository.HoldRepo, stock *StockView, m *metrics.Metrics, ttl time.Duration) *HoldManager {
	return &HoldManager{db: db, products: products, holds: holds, stock: stock, metrics: m, ttl: ttl}
}

// Create runs create_with_validation (spec §4.6): exclusively lock the
// product row, compute available_stock under that lock, reject if the
// requested quantity exceeds it, otherwise insert a new active hold.
func (m *HoldManager) Create(ctx context.Context, productID uint64, quantity int64) (*model.Hold, error) {
	if quantity <= 0 {
		return nil, BadRequest("quantity must be positive")
	}

	var hold *model.Hold
	err := retry.Do("hold.create", m.metrics, func() error {
		tx, err := m.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		product, err := m.products.GetForUpdateTx(ctx, tx, productID)
		if err != nil {
			return err
		}

		used, err := m.holds.SumActiveQuantityTx(ctx, tx, productID, time.Now().UTC())
		if err != nil {
			return err
		}

		available := product.Stock - used
		if available < 0 {
			available = 0
		}
		if quantity > available {
			return BadRequest("Insufficient stock available")
		}

		h, err := m.holds.CreateTx(ctx, tx, productID, quantity, time.Now().UTC().Add(m.ttl))
		if err != nil {
			return err
		}
		hold = h
		return tx.Commit()
	})
	if err != nil {
		if err == retry.ErrContentionExhausted {
			return nil, Contention(err.Error())
		}
		if err == repository.ErrNotFound {
			return nil, NotFound("product not found")
		}
		if svcErr, ok := err.(*Error); ok {
			return nil, svcErr
		}
		return nil, err
	}

	m.stock.InvalidateProduct(ctx, productID)
	return hold, nil
}

// Release sets a hold back to unused (is_used=false), per spec §4.6's
// release operation: the one legal reversion of the exactly-once-use
// invariant. OrderManager.Cancel and the webhook processor do not call it;
// they release the hold inside their own transactions via HoldRepo.ReleaseTx.
func (m *HoldManager) Release(ctx context.Context, holdID uint64) error {
	hold, err := m.holds.GetByID(ctx, holdID)
	if err != nil {
		if err == repository.ErrNotFound {
			return NotFound("hold not found")
		}
		return err
	}
	if err := m.holds.Release(ctx, holdID); err != nil {
		return err
	}
	m.stock.InvalidateProduct(ctx, hold.ProductID)
	return nil
}

// SweepExpired runs the expiry_sweep batch job (spec §4.6): every hold
// past its expires_at and still active is marked used, freeing its
// quantity back into available_stock. The update is idempotent against a
// hold that create_from_hold confirms in the same instant, since it only
// flips rows still is_used=0.
func (m *HoldManager) SweepExpired(ctx context.Context) (int64, []uint64, error) {
	var affected int64
	var productIDs []uint64

	err := retry.Do("hold.sweep", m.metrics, func() error {
		affected = 0
		productIDs = productIDs[:0]

		tx, err := m.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		expired, err := m.holds.ExpiredSweepBatch(ctx, tx, time.Now().UTC())
		if err != nil {
			return err
		}
		if len(expired) == 0 {
			return tx.Commit()
		}

		ids := make([]uint64, 0, len(expired))
		seen := make(map[uint64]bool, len(expired))
		for _, h := range expired {
			ids = append(ids, h.ID)
			if !seen[h.ProductID] {
				seen[h.ProductID] = true
				productIDs = append(productIDs, h.ProductID)
			}
		}

		n, err := m.holds.MarkUsedIfStillActiveTx(ctx, tx, ids)
		if err != nil {
			return err
		}
		affected = n
		return tx.Commit()
	})
	if err != nil {
		if err == retry.ErrContentionExhausted {
			return 0, nil, Contention(err.Error())
		}
		return 0, nil, err
	}

	m.stock.InvalidateProducts(ctx, productIDs)
	return affected, productIDs, nil
}
