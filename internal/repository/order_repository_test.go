package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Esraa-27/flash-sale-api/internal/model"
	"github.com/Esraa-27/flash-sale-api/internal/repository"
)

func TestOrderRepo_CreateTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewOrderRepo(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders \\(hold_id, status\\) VALUES \\(\\?, \\?\\)").
		WithArgs(uint64(5), model.OrderPending).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery("SELECT id, hold_id, status, created_at FROM orders WHERE id = \\?").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hold_id", "status", "created_at"}).
			AddRow(9, 5, "pending", now))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)

	order, err := repo.CreateTx(context.Background(), tx, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), order.ID)
	assert.Equal(t, model.OrderPending, order.Status)

	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_SetStatusTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewOrderRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status = \\? WHERE id = \\?").
		WithArgs(model.OrderPaid, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)

	require.NoError(t, repo.SetStatusTx(context.Background(), tx, 9, model.OrderPaid))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
