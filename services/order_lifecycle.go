package services

import (
	"context"
	"fmt"
	"time"

	"github.com/junaidrashid-git/checkout-api/events"
	"github.com/junaidrashid-git/checkout-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var cancellableStatuses = []string{
	string(models.OrderStatusPending),
	string(models.OrderStatusConfirmed),
}

var terminalStatuses = []string{
	string(models.OrderStatusDelivered),
	string(models.OrderStatusCancelled),
}

type stockRestorer interface {
	Restore(ctx context.Context, tx *gorm.DB, productID uint, qty int) (bool, error)
}

// OrderLifecycle owns every status change after an order is created.
//
// Any status may follow any non-terminal status; delivered and cancelled are
// final. Cancel is only possible from pending or confirmed and puts the
// ordered quantities back on products that are still active; admins may still
// move later orders to cancelled through UpdateStatus.
type OrderLifecycle struct {
	db        *gorm.DB
	ledger    stockRestorer
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrderLifecycle(db *gorm.DB, ledger stockRestorer, publisher events.Publisher, logger *zap.Logger) *OrderLifecycle {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderLifecycle{
		db:        db,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// GetOrder returns the order with its lines. Orders owned by someone else
// look exactly like missing ones to non-admin callers.
func (l *OrderLifecycle) GetOrder(ctx context.Context, id uint, caller models.Principal) (*models.Order, error) {
	order, err := loadOrder(l.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(order.UserID) {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return order, nil
}

// ListOrders returns the caller's orders, or every order for admins, newest first.
func (l *OrderLifecycle) ListOrders(ctx context.Context, caller models.Principal) ([]models.Order, error) {
	query := l.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id ASC")
		}).
		Order("created_at DESC").
		Order("id DESC")
	if !caller.IsAdmin() {
		query = query.Where("user_id = ?", caller.ID)
	}

	orders := []models.Order{}
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus sets the status directly. Cancelling a pending or confirmed
// order goes through Cancel so stock is restored; a processing or shipped
// order is cancelled as is, its stock stays with the fulfilment that already
// took it.
func (l *OrderLifecycle) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	if status == models.OrderStatusCancelled {
		current, err := loadOrder(l.db.WithContext(ctx), id)
		if err != nil {
			return nil, err
		}
		if current.Status.IsCancellable() {
			return l.Cancel(ctx, id, models.Principal{Role: models.RoleAdmin})
		}
	}

	// Pending and confirmed orders never reach cancelled on this path.
	guarded := terminalStatuses
	if status == models.OrderStatusCancelled {
		guarded = append(append([]string{}, terminalStatuses...), cancellableStatuses...)
	}

	var order *models.Order
	changed := false
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadOrder(tx, id)
		if err != nil {
			return err
		}
		if current.Status == status {
			order = current
			return nil
		}
		if current.Status.IsTerminal() {
			return &TransitionError{From: current.Status, To: status}
		}

		now := l.now()
		updates := map[string]interface{}{"status": status, "updated_at": now}
		if status == models.OrderStatusCancelled {
			updates["cancelled_at"] = now
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status NOT IN ?", id, guarded).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update order %d status: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return &TransitionError{From: current.Status, To: status}
		}

		order, err = loadOrder(tx, id)
		changed = err == nil
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		l.logger.Info("🔄 Order status updated",
			zap.Uint("order_id", id),
			zap.String("status", string(status)),
		)
		eventType := events.OrderStatusChanged
		if status == models.OrderStatusCancelled {
			eventType = events.OrderCancelled
		}
		l.publish(ctx, eventType, order)
	}
	return order, nil
}

// Cancel moves a pending or confirmed order to cancelled and restores stock
// for every line whose product is still active. Lines pointing at deleted or
// deactivated products are skipped and logged.
func (l *OrderLifecycle) Cancel(ctx context.Context, id uint, caller models.Principal) (*models.Order, error) {
	var order *models.Order
	var skipped []uint
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadOrder(tx, id)
		if err != nil {
			return err
		}
		if !caller.CanAccess(current.UserID) {
			return fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		if !current.Status.IsCancellable() {
			return &TransitionError{From: current.Status, To: models.OrderStatusCancelled}
		}

		// The status guard makes a second concurrent cancel a no-op instead
		// of a double restore.
		now := l.now()
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status IN ?", id, cancellableStatuses).
			Updates(map[string]interface{}{
				"status":       models.OrderStatusCancelled,
				"cancelled_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return fmt.Errorf("cancel order %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return &TransitionError{From: current.Status, To: models.OrderStatusCancelled}
		}

		for _, item := range current.Items {
			applied, err := l.ledger.Restore(ctx, tx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !applied {
				skipped = append(skipped, item.ProductID)
			}
		}

		order, err = loadOrder(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(skipped) > 0 {
		l.logger.Info("↩️ Stock not restored for inactive or deleted products",
			zap.Uint("order_id", id),
			zap.Uints("product_ids", skipped),
		)
	}
	l.logger.Info("🛑 Order cancelled",
		zap.Uint("order_id", id),
		zap.String("order_number", order.OrderNumber),
		zap.String("by", caller.ID),
	)
	l.publish(ctx, events.OrderCancelled, order)
	return order, nil
}

// UpdatePaymentStatus is independent of the order status; a cancelled order
// may still be marked refunded.
func (l *OrderLifecycle) UpdatePaymentStatus(ctx context.Context, id uint, status models.PaymentStatus) (*models.Order, error) {
	db := l.db.WithContext(ctx)
	res := db.Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"payment_status": status, "updated_at": l.now()})
	if res.Error != nil {
		return nil, fmt.Errorf("update order %d payment status: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}

	order, err := loadOrder(db, id)
	if err != nil {
		return nil, err
	}
	l.logger.Info("💳 Payment status updated",
		zap.Uint("order_id", id),
		zap.String("payment_status", string(status)),
	)
	l.publish(ctx, events.OrderPaymentStatusChanged, order)
	return order, nil
}

func (l *OrderLifecycle) publish(ctx context.Context, t events.Type, order *models.Order) {
	if err := l.publisher.Publish(ctx, events.NewOrderEvent(t, order, l.now())); err != nil {
		l.logger.Warn("⚠️ Failed to publish order event",
			zap.Uint("order_id", order.ID),
			zap.String("type", string(t)),
			zap.Error(err),
		)
	}
}
