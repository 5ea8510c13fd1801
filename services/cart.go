// Package services holds the checkout core: the cart store, the cart
// validator, the order factory and the order lifecycle manager. Services are
// constructed with an injected *gorm.DB and never keep process-wide state.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/junaidrashid-git/checkout-api/inventory"
	"github.com/junaidrashid-git/checkout-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultMaxLineQuantity = 100

// CartService is the per-user cart store. It reads stock but never writes it.
type CartService struct {
	db              *gorm.DB
	ledger          *inventory.Ledger
	logger          *zap.Logger
	maxLineQuantity int
}

func NewCartService(db *gorm.DB, ledger *inventory.Ledger, logger *zap.Logger, maxLineQuantity int) *CartService {
	if maxLineQuantity <= 0 {
		maxLineQuantity = DefaultMaxLineQuantity
	}
	return &CartService{
		db:              db,
		ledger:          ledger,
		logger:          logger,
		maxLineQuantity: maxLineQuantity,
	}
}

func (s *CartService) MaxLineQuantity() int {
	return s.maxLineQuantity
}

func (s *CartService) checkQuantity(qty int) error {
	if qty <= 0 || qty > s.maxLineQuantity {
		return fmt.Errorf("%w: %d (must be between 1 and %d)", ErrInvalidQuantity, qty, s.maxLineQuantity)
	}
	return nil
}

// loadProduct translates ledger lookups into the service taxonomy.
func (s *CartService) loadProduct(ctx context.Context, tx *gorm.DB, productID uint) (*models.Product, error) {
	product, err := s.ledger.Get(ctx, tx, productID)
	if err != nil {
		if errors.Is(err, inventory.ErrProductNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, fmt.Errorf("product %d: %w", productID, ErrProductUnavailable)
	}
	return product, nil
}

// AddLine merges qty into the user's line for productID, creating it on the
// first add. The merge is a single upsert so concurrent adds never overwrite
// each other; the resulting quantity must still fit the current stock.
func (s *CartService) AddLine(ctx context.Context, userID string, productID uint, qty int) (*models.CartItem, error) {
	if err := s.checkQuantity(qty); err != nil {
		return nil, err
	}

	var line models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := s.loadProduct(ctx, tx, productID)
		if err != nil {
			return err
		}

		item := models.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  qty,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + ?", qty),
				"updated_at": time.Now(),
			}),
		}).Omit(clause.Associations).Create(&item).Error; err != nil {
			return fmt.Errorf("upsert cart line: %w", err)
		}

		if err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&line).Error; err != nil {
			return fmt.Errorf("reload cart line: %w", err)
		}
		if line.Quantity > product.StockQuantity {
			return &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.StockQuantity,
			}
		}
		line.Product = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("🛒 Cart line added",
		zap.String("user_id", userID),
		zap.Uint("product_id", productID),
		zap.Int("added", qty),
		zap.Int("quantity", line.Quantity),
	)
	return &line, nil
}

// SetLineQuantity overwrites the quantity of one of the caller's lines.
func (s *CartService) SetLineQuantity(ctx context.Context, userID string, lineID uint, qty int) (*models.CartItem, error) {
	if err := s.checkQuantity(qty); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var line models.CartItem
	if err := db.Where("id = ? AND user_id = ?", lineID, userID).First(&line).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart line %d: %w", lineID, ErrNotFound)
		}
		return nil, fmt.Errorf("load cart line %d: %w", lineID, err)
	}

	product, err := s.loadProduct(ctx, nil, line.ProductID)
	if err != nil {
		return nil, err
	}
	if qty > product.StockQuantity {
		return nil, &InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   qty,
			Available:   product.StockQuantity,
		}
	}

	res := db.Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", lineID, userID).
		Updates(map[string]interface{}{"quantity": qty, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, fmt.Errorf("update cart line %d: %w", lineID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("cart line %d: %w", lineID, ErrNotFound)
	}

	line.Quantity = qty
	line.Product = product
	return &line, nil
}

// RemoveLine deletes one of the caller's lines.
func (s *CartService) RemoveLine(ctx context.Context, userID string, lineID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("delete cart line %d: %w", lineID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart line %d: %w", lineID, ErrNotFound)
	}
	return nil
}

// Clear empties the cart. An already empty cart is not an error.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// ListLines returns the cart newest first, each line joined with the current
// product row. Product is nil when the product has since been deleted.
func (s *CartService) ListLines(ctx context.Context, userID string) ([]models.CartItem, error) {
	lines := []models.CartItem{}
	if err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	return lines, nil
}

// Summarize totals the cart at live prices.
func (s *CartService) Summarize(ctx context.Context, userID string) (*models.CartSummary, error) {
	lines, err := s.ListLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &models.CartSummary{
		LineCount:   len(lines),
		TotalAmount: decimal.Zero,
	}
	for _, line := range lines {
		summary.TotalQuantity += line.Quantity
		if line.Product != nil {
			summary.TotalAmount = summary.TotalAmount.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}
	return summary, nil
}
