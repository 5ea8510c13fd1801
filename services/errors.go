package services

import (
	"errors"
	"fmt"

	"github.com/junaidrashid-git/checkout-api/models"
)

// Expected, user-facing outcomes. Anything else coming out of a service is an
// unclassified store failure.
var (
	ErrNotFound             = errors.New("not found")
	ErrProductUnavailable   = errors.New("product is not available")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrCartValidationFailed = errors.New("cart validation failed")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrConflictRetry        = errors.New("conflicting order number, retry")
)

// InsufficientStockError names the product and how many units are left.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): requested %d, available %d",
		e.ProductID, e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type IssueReason string

const (
	IssueProductNotFound   IssueReason = "product_not_found"
	IssueProductInactive   IssueReason = "inactive"
	IssueInsufficientStock IssueReason = "insufficient_stock"
)

// CartIssue describes one cart line that cannot be checked out as is.
type CartIssue struct {
	LineID    uint        `json:"line_id"`
	ProductID uint        `json:"product_id"`
	Name      string      `json:"name,omitempty"`
	Reason    IssueReason `json:"reason"`
	Requested int         `json:"requested"`
	Available int         `json:"available"`
}

type CartValidationError struct {
	Issues []CartIssue
}

func (e *CartValidationError) Error() string {
	return fmt.Sprintf("cart validation failed: %d invalid line(s)", len(e.Issues))
}

// Is also matches ErrInsufficientStock and ErrProductUnavailable when an
// issue of that kind is present, so a checkout that loses a stock race reads
// the same whether the pre-flight check or the stock guard caught it.
func (e *CartValidationError) Is(target error) bool {
	switch target {
	case ErrCartValidationFailed:
		return true
	case ErrInsufficientStock:
		return e.has(IssueInsufficientStock)
	case ErrProductUnavailable:
		return e.has(IssueProductInactive)
	}
	return false
}

func (e *CartValidationError) has(reason IssueReason) bool {
	for _, issue := range e.Issues {
		if issue.Reason == reason {
			return true
		}
	}
	return false
}

type TransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// IsExpected reports whether err belongs to the checkout taxonomy rather than
// being an unclassified store failure.
func IsExpected(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrProductUnavailable, ErrInsufficientStock, ErrInvalidQuantity,
		ErrEmptyCart, ErrCartValidationFailed, ErrInvalidTransition, ErrConflictRetry,
		models.ErrInvalidAddress,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
