package services

import (
	"context"

	"github.com/junaidrashid-git/checkout-api/models"
)

// ValidationResult reports which cart lines could be checked out right now.
// An empty cart is valid with no lines; callers reject empty checkouts.
type ValidationResult struct {
	IsValid      bool              `json:"is_valid"`
	ValidLines   []models.CartItem `json:"valid_lines"`
	InvalidLines []CartIssue       `json:"invalid_lines"`
}

// CartValidator is an advisory pre-flight check. Its answer can be stale by
// the time a checkout transaction opens; the conditional stock decrement in
// OrderFactory is what actually enforces availability.
type CartValidator struct {
	carts *CartService
}

func NewCartValidator(carts *CartService) *CartValidator {
	return &CartValidator{carts: carts}
}

func (v *CartValidator) Validate(ctx context.Context, userID string) (*ValidationResult, error) {
	lines, err := v.carts.ListLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	return v.Check(lines), nil
}

// Check classifies already loaded lines against their joined product rows.
func (v *CartValidator) Check(lines []models.CartItem) *ValidationResult {
	result := &ValidationResult{
		ValidLines:   []models.CartItem{},
		InvalidLines: []CartIssue{},
	}
	for _, line := range lines {
		issue := CartIssue{
			LineID:    line.ID,
			ProductID: line.ProductID,
			Requested: line.Quantity,
		}
		switch p := line.Product; {
		case p == nil:
			issue.Reason = IssueProductNotFound
		case !p.IsActive:
			issue.Reason = IssueProductInactive
			issue.Name = p.Name
			issue.Available = p.StockQuantity
		case line.Quantity > p.StockQuantity:
			issue.Reason = IssueInsufficientStock
			issue.Name = p.Name
			issue.Available = p.StockQuantity
		default:
			result.ValidLines = append(result.ValidLines, line)
			continue
		}
		result.InvalidLines = append(result.InvalidLines, issue)
	}
	result.IsValid = len(result.InvalidLines) == 0
	return result
}
