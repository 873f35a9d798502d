package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Esraa-27/flash-sale-api/internal/model"
	"github.com/Esraa-27/flash-sale-api/internal/repository"
)

func TestPaymentRepo_FindByIdempotencyKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewPaymentRepo(db)
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, order_id, idempotency_key, status, created_at FROM payments WHERE idempotency_key = \\?").
			WithArgs("k-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "idempotency_key", "status", "created_at"}).
				AddRow(1, 2, "k-1", "success", now))

		payment, err := repo.FindByIdempotencyKey(context.Background(), "k-1")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentSuccess, payment.Status)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, order_id, idempotency_key, status, created_at FROM payments WHERE idempotency_key = \\?").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "idempotency_key", "status", "created_at"}))

		payment, err := repo.FindByIdempotencyKey(context.Background(), "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, payment)
	})
}

func TestPaymentRepo_CreateTx_DuplicateKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewPaymentRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payments \\(order_id, idempotency_key, status\\) VALUES \\(\\?, \\?, \\?\\)").
		WithArgs(uint64(2), "k-1", model.PaymentSuccess).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'k-1' for key 'idempotency_key'"})
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	payment, err := repo.CreateTx(context.Background(), tx, 2, "k-1", model.PaymentSuccess)
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
	assert.Nil(t, payment)
}
