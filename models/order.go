package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentStatus string

const (
	// Order statuses
	OrderStatusPending    OrderStatus = "pending"    // Order placed, awaiting confirmation
	OrderStatusConfirmed  OrderStatus = "confirmed"  // Confirmed by seller
	OrderStatusProcessing OrderStatus = "processing" // Being picked and packed
	OrderStatusShipped    OrderStatus = "shipped"    // Out for delivery
	OrderStatusDelivered  OrderStatus = "delivered"  // Customer received the items
	OrderStatusCancelled  OrderStatus = "cancelled"  // Cancelled before shipping

	// Payment statuses
	PaymentStatusPending  PaymentStatus = "pending"  // Payment not completed yet
	PaymentStatusPaid     PaymentStatus = "paid"     // Payment completed successfully
	PaymentStatusFailed   PaymentStatus = "failed"   // Payment attempt failed
	PaymentStatusRefunded PaymentStatus = "refunded" // Money returned to customer
)

var (
	ErrUnknownOrderStatus   = errors.New("invalid order status")
	ErrUnknownPaymentStatus = errors.New("invalid payment status")
)

// IsTerminal reports whether no further status change is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsCancellable reports whether a cancel request may start from s.
func (s OrderStatus) IsCancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// ParseOrderStatus maps user input onto a known OrderStatus.
func ParseOrderStatus(status string) (OrderStatus, error) {
	switch s := OrderStatus(strings.ToLower(strings.TrimSpace(status))); s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return s, nil
	default:
		return "", ErrUnknownOrderStatus
	}
}

// ParsePaymentStatus maps user input onto a known PaymentStatus.
func ParsePaymentStatus(status string) (PaymentStatus, error) {
	switch s := PaymentStatus(strings.ToLower(strings.TrimSpace(status))); s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return s, nil
	default:
		return "", ErrUnknownPaymentStatus
	}
}

type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          string          `gorm:"not null;index" json:"user_id"`
	OrderNumber     string          `gorm:"not null;uniqueIndex" json:"order_number"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"type:VARCHAR(20);not null;default:'pending'" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:VARCHAR(20);not null;default:'pending'" json:"payment_status"`
	PaymentMethod   string          `json:"payment_method"` // e.g. "card", "cod"
	Notes           string          `json:"notes"`
	ShippingAddress Address         `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	BillingAddress  Address         `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is the immutable snapshot of a cart line at commit time. It keeps
// no foreign key to products so catalog edits and deletes never reach it.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"index;not null" json:"order_id"`
	ProductID   uint            `gorm:"index;not null" json:"product_id"`
	ProductName string          `gorm:"not null" json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_total"`
	CreatedAt   time.Time       `json:"created_at"`
}
