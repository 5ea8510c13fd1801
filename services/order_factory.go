package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/junaidrashid-git/checkout-api/events"
	"github.com/junaidrashid-git/checkout-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// orderNumberAttempts bounds how many fresh order numbers one checkout tries
// before giving up with ErrConflictRetry.
const orderNumberAttempts = 2

type CheckoutRequest struct {
	ShippingAddress models.Address
	BillingAddress  *models.Address // defaults to ShippingAddress
	PaymentMethod   string
	Notes           string
}

// OrderFactory turns a user's cart into an order in one transaction.
type OrderFactory struct {
	db        *gorm.DB
	ledger    stockDecrementer
	carts     *CartService
	validator *CartValidator
	publisher events.Publisher
	logger    *zap.Logger

	newOrderNumber func(time.Time) string
	now            func() time.Time
}

type stockDecrementer interface {
	Get(ctx context.Context, tx *gorm.DB, productID uint) (*models.Product, error)
	Decrement(ctx context.Context, tx *gorm.DB, productID uint, qty int) (bool, error)
}

func NewOrderFactory(
	db *gorm.DB,
	ledger stockDecrementer,
	carts *CartService,
	validator *CartValidator,
	publisher events.Publisher,
	logger *zap.Logger,
) *OrderFactory {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderFactory{
		db:             db,
		ledger:         ledger,
		carts:          carts,
		validator:      validator,
		publisher:      publisher,
		logger:         logger,
		newOrderNumber: GenerateOrderNumber,
		now:            time.Now,
	}
}

// GenerateOrderNumber builds a readable number from the timestamp and a short
// random suffix, e.g. ORD-20250908130500-3F9A1C. It is not guaranteed unique;
// the unique index on orders.order_number catches collisions.
func GenerateOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "ORD-" + at.UTC().Format("20060102150405") + "-" + suffix
}

// CreateOrder checks out the user's cart. On any failure nothing is written:
// no order, no stock change, the cart stays as it was.
func (f *OrderFactory) CreateOrder(ctx context.Context, userID string, req CheckoutRequest) (*models.Order, error) {
	if err := req.ShippingAddress.Validate(); err != nil {
		return nil, fmt.Errorf("shipping address: %w", err)
	}
	billing := req.ShippingAddress
	if req.BillingAddress != nil && !req.BillingAddress.IsZero() {
		if err := req.BillingAddress.Validate(); err != nil {
			return nil, fmt.Errorf("billing address: %w", err)
		}
		billing = *req.BillingAddress
	}

	lines, err := f.carts.ListLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	if result := f.validator.Check(lines); !result.IsValid {
		return nil, &CartValidationError{Issues: result.InvalidLines}
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	// Lock product rows in a fixed order so concurrent checkouts touching the
	// same products cannot deadlock.
	sorted := make([]models.CartItem, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	draft := models.Order{
		UserID:          userID,
		TotalAmount:     total,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
	}

	var order *models.Order
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		candidate := draft
		candidate.OrderNumber = f.newOrderNumber(f.now())

		err = f.commit(ctx, &candidate, sorted)
		if err == nil {
			order = &candidate
			break
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		f.logger.Warn("⚠️ Order number collision",
			zap.String("order_number", candidate.OrderNumber),
			zap.Int("attempt", attempt),
		)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %v", ErrConflictRetry, err)
	}

	hydrated, err := f.load(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	f.logger.Info("✅ Order placed",
		zap.Uint("order_id", hydrated.ID),
		zap.String("order_number", hydrated.OrderNumber),
		zap.String("user_id", userID),
		zap.String("total_amount", hydrated.TotalAmount.StringFixed(2)),
		zap.Int("lines", len(hydrated.Items)),
	)
	if err := f.publisher.Publish(ctx, events.NewOrderEvent(events.OrderCreated, hydrated, f.now())); err != nil {
		f.logger.Warn("⚠️ Failed to publish order event", zap.Uint("order_id", hydrated.ID), zap.Error(err))
	}
	return hydrated, nil
}

// commit writes order, line snapshots, stock decrements and the removal of
// the checked out cart lines as one transaction.
func (f *OrderFactory) commit(ctx context.Context, order *models.Order, lines []models.CartItem) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, line := range lines {
			product := line.Product
			item := models.OrderItem{
				OrderID:     order.ID,
				ProductID:   line.ProductID,
				ProductName: product.Name,
				ProductSKU:  product.SKU,
				UnitPrice:   product.Price,
				Quantity:    line.Quantity,
				LineTotal:   product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("insert order item for product %d: %w", line.ProductID, err)
			}

			applied, err := f.ledger.Decrement(ctx, tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !applied {
				available := 0
				if current, err := f.ledger.Get(ctx, tx, line.ProductID); err == nil {
					available = current.StockQuantity
				}
				f.logger.Info("📉 Stock guard rejected checkout",
					zap.Uint("product_id", line.ProductID),
					zap.Int("requested", line.Quantity),
					zap.Int("available", available),
				)
				return &InsufficientStockError{
					ProductID:   line.ProductID,
					ProductName: product.Name,
					Requested:   line.Quantity,
					Available:   available,
				}
			}
		}

		// Only the units this order was built from leave the cart. Lines added or topped up
		// by another request in the meantime keep what was not ordered.
		for _, line := range lines {
			res := tx.Where("id = ? AND user_id = ? AND quantity <= ?", line.ID, order.UserID, line.Quantity).
				Delete(&models.CartItem{})
			if res.Error != nil {
				return fmt.Errorf("clear cart line %d: %w", line.ID, res.Error)
			}
			if res.RowsAffected > 0 {
				continue
			}
			if err := tx.Model(&models.CartItem{}).
				Where("id = ? AND user_id = ?", line.ID, order.UserID).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", line.Quantity)).Error; err != nil {
				return fmt.Errorf("trim cart line %d: %w", line.ID, err)
			}
		}
		return nil
	})
}

func (f *OrderFactory) load(ctx context.Context, id uint) (*models.Order, error) {
	return loadOrder(f.db.WithContext(ctx), id)
}

func loadOrder(db *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	}).First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load order %d: %w", id, err)
	}
	return &order, nil
}
