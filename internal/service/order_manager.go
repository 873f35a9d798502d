package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Esraa-27/flash-sale-api/internal/metrics"
	"github.com/Esraa-27/flash-sale-api/internal/model"
	"github.com/Esraa-27/flash-sale-api/internal/queue"
	"github.com/Esraa-27/flash-sale-api/internal/repository"
	"github.com/Esraa-27/flash-sale-api/internal/retry"
)

// OrderManager owns order creation and status transitions (spec §4.7):
// create_from_hold, mark_paid and cancel. Every mutation runs inside a
// transaction under the deadlock-retry wrapper.
type OrderManager struct {
	db        *sqlx.DB
	holds     *repository.HoldRepo
	orders    *repository.OrderRepo
	stock     *StockView
	publisher *queue.Publisher
	metrics   *metrics.Metrics
}

// NewOrderManager builds an OrderManager.
func NewOrderManager(db *sqlx.DB, holds *repository.HoldRepo, orders *repository.OrderRepo, stock *StockView, publisher *queue.Publisher, m *metrics.Metrics) *OrderManager {
	return &OrderManager{db: db, holds: holds, orders: orders, stock: stock, publisher: publisher, metrics: m}
}

// CreateFromHold runs create_from_hold (spec §4.7): exclusively lock the
// hold, reject if it is expired or already used (checked in that order),
// mark it used, and insert a pending order referencing it.
func (m *OrderManager) CreateFromHold(ctx context.Context, holdID uint64) (*model.Order, error) {
	var order *model.Order
	var productID uint64

	err := retry.Do("order.create_from_hold", m.metrics, func() error {
		tx, err := m.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		hold, err := m.holds.GetForUpdateTx(ctx, tx, holdID)
		if err != nil {
			return err
		}
		if !hold.ExpiresAt.After(time.Now().UTC()) {
			return BadRequest("Hold has expired")
		}
		if hold.IsUsed {
			return BadRequest("Hold has already been used")
		}

		if err := m.holds.MarkUsedTx(ctx, tx, holdID); err != nil {
			return err
		}

		o, err := m.orders.CreateTx(ctx, tx, holdID)
		if err != nil {
			return err
		}
		order = o
		productID = hold.ProductID
		return tx.Commit()
	})
	if err != nil {
		if err == retry.ErrContentionExhausted {
			return nil, Contention(err.Error())
		}
		if err == repository.ErrNotFound {
			return nil, NotFound("hold not found")
		}
		if svcErr, ok := err.(*Error); ok {
			return nil, svcErr
		}
		return nil, err
	}

	m.stock.InvalidateProduct(ctx, productID)
	return order, nil
}

// MarkPaid sets an order's status to paid, whatever its current status,
// and publishes an order.paid event (spec §4.7, §6 domain events).
func (m *OrderManager) MarkPaid(ctx context.Context, orderID uint64) error {
	return m.transition(ctx, orderID, model.OrderPaid, "order.paid")
}

// Cancel transitions an order to cancelled, releases its hold and
// publishes an order.cancelled event (spec §4.7, §4.8 step 3d).
func (m *OrderManager) Cancel(ctx context.Context, orderID uint64) error {
	var holdID uint64

	err := retry.Do("order.cancel", m.metrics, func() error {
		tx, err := m.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		order, err := m.orders.GetForUpdateTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := m.orders.SetStatusTx(ctx, tx, orderID, model.OrderCancelled); err != nil {
			return err
		}
		if err := m.holds.ReleaseTx(ctx, tx, order.HoldID); err != nil {
			return err
		}
		holdID = order.HoldID
		return tx.Commit()
	})
	if err != nil {
		if err == retry.ErrContentionExhausted {
			return Contention(err.Error())
		}
		if err == repository.ErrNotFound {
			return NotFound("order not found")
		}
		return err
	}

	hold, err := m.holds.GetByID(ctx, holdID)
	if err == nil {
		m.stock.InvalidateProduct(ctx, hold.ProductID)
	}
	m.publisher.Publish(ctx, "order.cancelled", queue.OrderEvent{OrderID: orderID})
	return nil
}

func (m *OrderManager) transition(ctx context.Context, orderID uint64, status model.OrderStatus, event string) error {
	err := retry.Do("order."+string(status), m.metrics, func() error {
		tx, err := m.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := m.orders.GetForUpdateTx(ctx, tx, orderID); err != nil {
			return err
		}
		if err := m.orders.SetStatusTx(ctx, tx, orderID, status); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		if err == retry.ErrContentionExhausted {
			return Contention(err.Error())
		}
		if err == repository.ErrNotFound {
			return NotFound("order not found")
		}
		return err
	}
	m.publisher.Publish(ctx, event, queue.OrderEvent{OrderID: orderID})
	return nil
}
