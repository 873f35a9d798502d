package service

import (
	"context"
	"strconv"
	"time"

	"github.com/Esraa-27/flash-sale-api/internal/cache"
	"github.com/Esraa-27/flash-sale-api/internal/metrics"
	"github.com/Esraa-27/flash-sale-api/internal/repository"
)

// StockView answers available_stock(p) = p.stock - sum(active hold
// quantities), clamped at zero (spec §3, §4.2). It never takes a lock: the
// value it returns is a read-through snapshot, not a reservation.
type StockView struct {
	products *repository.ProductRepo
	holds    *repository.HoldRepo
	cache    cache.Cache
	metrics  *metrics.Metrics
}

// NewStockView builds a StockView over the given repositories and cache.
func NewStockView(products *repository.ProductRepo, holds *repository.HoldRepo, c cache.Cache, m *metrics.Metrics) *StockView {
	return &StockView{products: products, holds: holds, cache: c, metrics: m}
}

// Available returns the available stock for productID, preferring the
// cache and falling back to a fresh computation on a miss (spec §4.3
// read-through cache).
func (s *StockView) Available(ctx context.Context, productID uint64) (int64, error) {
	key := cache.AvailableStockKey(productID)
	if raw, ok := s.cache.Get(ctx, key); ok {
		s.metrics.IncCacheHit()
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v, nil
		}
	}
	s.metrics.IncCacheMiss()

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if err == repository.ErrNotFound {
			return 0, NotFound("product not found")
		}
		return 0, err
	}

	used, err := s.holds.SumActiveQuantity(ctx, productID, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	available := product.Stock - used
	if available < 0 {
		available = 0
	}

	s.cache.Put(ctx, key, strconv.FormatInt(available, 10), cache.DefaultTTL)
	return available, nil
}

// InvalidateProduct drops the cached available-stock figure for productID.
// Called by the hold and order managers after any mutation that could
// change it (spec §4.3 invalidation policy).
func (s *StockView) InvalidateProduct(ctx context.Context, productID uint64) {
	s.cache.Forget(ctx, cache.AvailableStockKey(productID))
}

// InvalidateProducts drops the cached available-stock figures for every id
// in productIDs in a single batch call, for mutations (like the expiry
// sweep) that can touch many products in one pass.
func (s *StockView) InvalidateProducts(ctx context.Context, productIDs []uint64) {
	if len(productIDs) == 0 {
		return
	}
	keys := make([]string, len(productIDs))
	for i, pid := range productIDs {
		keys[i] = cache.AvailableStockKey(pid)
	}
	s.cache.ForgetMany(ctx, keys)
}
