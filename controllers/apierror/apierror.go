// Package apierror renders service errors as JSON responses.
package apierror

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/checkout-api/models"
	"github.com/junaidrashid-git/checkout-api/services"
	"go.uber.org/zap"
)

// Write maps err onto a status code and body. Unclassified errors are logged
// and hidden behind a generic 500.
func Write(c *gin.Context, logger *zap.Logger, err error) {
	var stockErr *services.InsufficientStockError
	var validationErr *services.CartValidationError
	var transitionErr *services.TransitionError

	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":      err.Error(),
			"code":       "insufficient_stock",
			"product_id": stockErr.ProductID,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  err.Error(),
			"code":   "cart_validation_failed",
			"issues": validationErr.Issues,
		})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
			"code":  "invalid_transition",
			"from":  transitionErr.From,
			"to":    transitionErr.To,
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, services.ErrProductUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "unavailable"})
	case errors.Is(err, services.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "empty_cart"})
	case errors.Is(err, services.ErrConflictRetry):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "conflict_retry", "retryable": true})
	case errors.Is(err, services.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_quantity"})
	case errors.Is(err, models.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_address"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "invalid_transition"})
	default:
		logger.Error("❌ Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// BadRequest reports malformed input caught before reaching a service.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// Unauthorized is used when a handler runs without a resolved principal.
func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
}
