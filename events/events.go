// Package events fans committed order changes out to listeners. Events are
// published after the transaction commits, so a failed publish never undoes
// an order.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/junaidrashid-git/checkout-api/models"
	"github.com/shopspring/decimal"
)

type Type string

const (
	OrderCreated              Type = "order.created"
	OrderStatusChanged        Type = "order.status_changed"
	OrderCancelled            Type = "order.cancelled"
	OrderPaymentStatusChanged Type = "order.payment_status_changed"
)

type OrderEvent struct {
	Type          Type                 `json:"type"`
	OrderID       uint                 `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	UserID        string               `json:"user_id"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	At            time.Time            `json:"at"`
}

func NewOrderEvent(t Type, order *models.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:          t,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		At:            at,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event OrderEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
