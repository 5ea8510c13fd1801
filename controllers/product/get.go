package productcontroller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/checkout-api/inventory"
	"go.uber.org/zap"
)

// GetProductByID returns a single product with its live price and stock.
// URL param: /products/:id
func GetProductByID(ledger *inventory.Ledger, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		idParam := c.Param("id")
		if idParam == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
			return
		}

		id, err := strconv.ParseUint(idParam, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
			return
		}

		product, err := ledger.Get(c.Request.Context(), nil, uint(id))
		if err != nil {
			if errors.Is(err, inventory.ErrProductNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			} else {
				logger.Error("❌ Failed to retrieve product", zap.Uint64("product_id", id), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve product"})
			}
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
