package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Esraa-27/flash-sale-api/internal/repository"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestProductRepo_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewProductRepo(db)
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name", "price", "stock", "created_at", "updated_at"}).
			AddRow(1, "Widget", "9.99", 10, now, now)
		mock.ExpectQuery("SELECT id, name, price, stock, created_at, updated_at FROM products WHERE id = ?").
			WithArgs(uint64(1)).
			WillReturnRows(rows)

		product, err := repo.GetByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), product.ID)
		assert.Equal(t, "Widget", product.Name)
		assert.Equal(t, int64(10), product.Stock)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, price, stock, created_at, updated_at FROM products WHERE id = ?").
			WithArgs(uint64(999)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "stock", "created_at", "updated_at"}))

		product, err := repo.GetByID(context.Background(), 999)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, product)
	})
}

func TestProductRepo_GetForUpdateTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewProductRepo(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, price, stock, created_at, updated_at FROM products WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "stock", "created_at", "updated_at"}).
			AddRow(1, "Widget", "9.99", 10, now, now))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)

	product, err := repo.GetForUpdateTx(context.Background(), tx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), product.Stock)

	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
