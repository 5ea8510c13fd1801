// Package inventory owns the per-product available quantity. Every write goes
// through a single conditional UPDATE so the check and the change happen in
// the same statement.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/junaidrashid-git/checkout-api/models"
	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// conn returns tx when the caller is inside a transaction.
func (l *Ledger) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return l.db.WithContext(ctx)
}

// Get reads a product that has not been soft deleted.
func (l *Ledger) Get(ctx context.Context, tx *gorm.DB, productID uint) (*models.Product, error) {
	var product models.Product
	if err := l.conn(ctx, tx).First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("load product %d: %w", productID, err)
	}
	return &product, nil
}

// Decrement subtracts qty only while stock_quantity >= qty. applied is false
// when the guard did not hold; the row is left untouched in that case.
func (l *Ledger) Decrement(ctx context.Context, tx *gorm.DB, productID uint, qty int) (applied bool, err error) {
	if qty <= 0 {
		return false, fmt.Errorf("decrement product %d: non-positive quantity %d", productID, qty)
	}
	res := l.conn(ctx, tx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return false, fmt.Errorf("decrement product %d: %w", productID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Restore adds qty back to a product that is still active. Deleted or
// deactivated products are skipped and reported with applied=false.
func (l *Ledger) Restore(ctx context.Context, tx *gorm.DB, productID uint, qty int) (applied bool, err error) {
	if qty <= 0 {
		return false, fmt.Errorf("restore product %d: non-positive quantity %d", productID, qty)
	}
	res := l.conn(ctx, tx).
		Model(&models.Product{}).
		Where("id = ? AND is_active = ?", productID, true).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
	if res.Error != nil {
		return false, fmt.Errorf("restore product %d: %w", productID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Restock adds qty received from a supplier. Unlike Restore it also applies
// to inactive products.
func (l *Ledger) Restock(ctx context.Context, productID uint, qty int) (*models.Product, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("restock product %d: non-positive quantity %d", productID, qty)
	}
	var product *models.Product
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).
			Where("id = ?", productID).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
		if res.Error != nil {
			return fmt.Errorf("restock product %d: %w", productID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
		}
		var err error
		product, err = l.Get(ctx, tx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}
