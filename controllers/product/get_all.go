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

var sortableColumns = map[string]bool{
	"created_at":     true,
	"price":          true,
	"name":           true,
	"stock_quantity": true,
}

// GetProducts lists active products.
func GetProducts(db *gorm.DB, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1️⃣ Filtering & sorting params
		search := c.Query("search")
		minPriceStr := c.Query("min_price")
		maxPriceStr := c.Query("max_price")
		sortBy := c.DefaultQuery("sort_by", "created_at")
		if !sortableColumns[sortBy] {
			sortBy = "created_at"
		}
		sortOrder := strings.ToLower(c.DefaultQuery("order", "desc"))
		if sortOrder != "asc" && sortOrder != "desc" {
			sortOrder = "desc"
		}

		// 2️⃣ Build base query
		query := db.WithContext(c.Request.Context()).Model(&models.Product{}).Where("is_active = ?", true)

		// 3️⃣ Apply search filter
		if search != "" {
			likePattern := "%" + strings.ToLower(search) + "%"
			query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", likePattern, likePattern)
		}

		// 4️⃣ Apply price range filter
		if minPriceStr != "" {
			mp, err := decimal.NewFromString(minPriceStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_price"})
				return
			}
			query = query.Where("price >= ?", mp)
		}
		if maxPriceStr != "" {
			mp, err := decimal.NewFromString(maxPriceStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price"})
				return
			}
			query = query.Where("price <= ?", mp)
		}

		// 5️⃣ Apply sorting
		products := []models.Product{}
		if err := query.Order(sortBy + " " + sortOrder).Find(&products).Error; err != nil {
			logger.Error("❌ Failed to fetch products", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}
