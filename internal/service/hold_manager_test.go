package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Esraa-27/flash-sale-api/internal/cache"
	"github.com/Esraa-27/flash-sale-api/internal/metrics"
	"github.com/Esraa-27/flash-sale-api/internal/repository"
	"github.com/Esraa-27/flash-sale-api/internal/service"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func newTestStock(db *sqlx.DB) *service.StockView {
	return service.NewStockView(
		repository.NewProductRepo(db),
		repository.NewHoldRepo(db),
		cache.NewMemoryCache(0, cache.DefaultTTL),
		metrics.New(nil),
	)
}

// TestHoldManager_Create_InsufficientStock exercises the boundary where the
// requested quantity exceeds available_stock under the product row lock
// (spec §8 scenario 1).
func TestHoldManager_Create_InsufficientStock(t *testing.T) {
	db, mock := newMockDB(t)
	products := repository.NewProductRepo(db)
	holds := repository.NewHoldRepo(db)
	stock := newTestStock(db)
	m := metrics.New(nil)
	mgr := service.NewHoldManager(db, products, holds, stock, m, 2*time.Minute)

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, price, stock, created_at, updated_at FROM products WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "stock", "created_at", "updated_at"}).
			AddRow(1, "Widget", "9.99", 10, now, now))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(quantity\\), 0\\) FROM holds WHERE product_id = \\? AND is_used = 0 AND expires_at > \\?").
		WithArgs(uint64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(10))
	mock.ExpectRollback()

	hold, err := mgr.Create(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Nil(t, hold)

	svcErr, ok := err.(*service.Error)
	require.True(t, ok)
	assert.Equal(t, service.KindBadRequest, svcErr.Kind)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldManager_Create_Success(t *testing.T) {
	db, mock := newMockDB(t)
	products := repository.NewProductRepo(db)
	holds := repository.NewHoldRepo(db)
	stock := newTestStock(db)
	m := metrics.New(nil)
	mgr := service.NewHoldManager(db, products, holds, stock, m, 2*time.Minute)

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, price, stock, created_at, updated_at FROM products WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "stock", "created_at", "updated_at"}).
			AddRow(1, "Widget", "9.99", 10, now, now))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(quantity\\), 0\\) FROM holds WHERE product_id = \\? AND is_used = 0 AND expires_at > \\?").
		WithArgs(uint64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
	mock.ExpectExec("INSERT INTO holds \\(product_id, quantity, expires_at, is_used\\) VALUES \\(\\?, \\?, \\?, 0\\)").
		WithArgs(uint64(1), int64(2), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT id, product_id, quantity, expires_at, is_used, created_at FROM holds WHERE id = \\?").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "quantity", "expires_at", "is_used", "created_at"}).
			AddRow(7, 1, 2, now.Add(2*time.Minute), false, now))
	mock.ExpectCommit()

	hold, err := mgr.Create(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), hold.ID)
	assert.Equal(t, int64(2), hold.Quantity)

	require.NoError(t, mock.ExpectationsWereMet())
}

// TestHoldManager_SweepExpired_ReturnsAffectedAndProductIDs exercises the
// expiry sweep's full batch shape (spec §4.6 expiry_sweep): the count of
// holds transitioned and the distinct product ids touched, both needed by
// the scheduler's structured log record.
func TestHoldManager_SweepExpired_ReturnsAffectedAndProductIDs(t *testing.T) {
	db, mock := newMockDB(t)
	products := repository.NewProductRepo(db)
	holds := repository.NewHoldRepo(db)
	stock := newTestStock(db)
	m := metrics.New(nil)
	mgr := service.NewHoldManager(db, products, holds, stock, m, 2*time.Minute)

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, product_id, quantity, expires_at, is_used, created_at FROM holds WHERE expires_at <= \\? AND is_used = 0 FOR UPDATE").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "quantity", "expires_at", "is_used", "created_at"}).
			AddRow(1, 1, 2, now.Add(-time.Minute), false, now.Add(-5*time.Minute)).
			AddRow(2, 2, 1, now.Add(-time.Minute), false, now.Add(-5*time.Minute)).
			AddRow(3, 1, 4, now.Add(-time.Minute), false, now.Add(-5*time.Minute)))
	mock.ExpectExec("UPDATE holds SET is_used = 1 WHERE is_used = 0 AND id IN \\(\\?, \\?, \\?\\)").
		WithArgs(uint64(1), uint64(2), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	affected, productIDs, err := mgr.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.ElementsMatch(t, []uint64{1, 2}, productIDs)

	require.NoError(t, mock.ExpectationsWereMet())
}
