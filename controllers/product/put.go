package productcontroller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/checkout-api/inventory"
	"github.com/junaidrashid-git/checkout-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpdateProductInput is a partial update; nil fields are left alone. Stock is
// not editable here, see RestockProduct.
type UpdateProductInput struct {
	Name        *string          `json:"name"`
	SKU         *string          `json:"sku"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	IsActive    *bool            `json:"is_active"`
}

type RestockInput struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func productIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return 0, false
	}
	return uint(id), true
}

// UpdateProduct changes catalog fields. Price changes never touch existing
// order snapshots; deactivating a product blocks new checkouts of it.
// PUT /admin/products/:id
func UpdateProduct(db *gorm.DB, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := productIDParam(c)
		if !ok {
			return
		}
		var input UpdateProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		updates := map[string]interface{}{}
		if input.Name != nil {
			if *input.Name == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
				return
			}
			updates["name"] = *input.Name
		}
		if input.SKU != nil {
			updates["sku"] = *input.SKU
		}
		if input.Description != nil {
			updates["description"] = *input.Description
		}
		if input.Price != nil {
			if input.Price.IsNegative() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "price cannot be negative"})
				return
			}
			updates["price"] = input.Price.Round(2)
		}
		if input.IsActive != nil {
			updates["is_active"] = *input.IsActive
		}

		db := db.WithContext(c.Request.Context())
		var product models.Product
		if err := db.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			logger.Error("❌ Failed to load product", zap.Uint("product_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
		if len(updates) > 0 {
			if err := db.Model(&product).Updates(updates).Error; err != nil {
				logger.Error("❌ Failed to update product", zap.Uint("product_id", id), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
				return
			}
			if err := db.First(&product, id).Error; err != nil {
				logger.Error("❌ Failed to reload product", zap.Uint("product_id", id), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
				return
			}
		}

		c.JSON(http.StatusOK, product)
	}
}

// RestockProduct adds received units through the ledger.
// POST /admin/products/:id/restock
func RestockProduct(ledger *inventory.Ledger, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := productIDParam(c)
		if !ok {
			return
		}
		var input RestockInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		product, err := ledger.Restock(c.Request.Context(), id, input.Quantity)
		if err != nil {
			if errors.Is(err, inventory.ErrProductNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			logger.Error("❌ Failed to restock product", zap.Uint("product_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restock product"})
			return
		}

		logger.Info("📦 Product restocked",
			zap.Uint("product_id", id),
			zap.Int("added", input.Quantity),
			zap.Int("stock_quantity", product.StockQuantity),
		)
		c.JSON(http.StatusOK, product)
	}
}
