package productcontroller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/checkout-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateProductInput struct {
	Name          string           `json:"name" binding:"required"`
	SKU           string           `json:"sku"`
	Description   string           `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity int              `json:"stock_quantity" binding:"min=0"`
	IsActive      *bool            `json:"is_active"`
}

// CreateProduct adds a catalog row. Products start active unless told otherwise.
// POST /admin/products
func CreateProduct(db *gorm.DB, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		if input.Price == nil || input.Price.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price is required and cannot be negative"})
			return
		}

		product := models.Product{
			Name:          strings.TrimSpace(input.Name),
			SKU:           strings.TrimSpace(input.SKU),
			Description:   input.Description,
			Price:         input.Price.Round(2),
			StockQuantity: input.StockQuantity,
			IsActive:      input.IsActive == nil || *input.IsActive,
		}
		if err := db.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
			logger.Error("❌ Failed to create product", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}

		logger.Info("📦 Product created", zap.Uint("product_id", product.ID), zap.String("sku", product.SKU))
		c.JSON(http.StatusCreated, product)
	}
}
