package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/checkout-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeleteProduct soft deletes the product. Cart lines pointing at it stay and
// are reported as product_not_found by cart validation; order snapshots keep
// their copied name and price.
// DELETE /admin/products/:id
func DeleteProduct(db *gorm.DB, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := productIDParam(c)
		if !ok {
			return
		}

		res := db.WithContext(c.Request.Context()).Delete(&models.Product{}, id)
		if res.Error != nil {
			logger.Error("❌ Failed to delete product", zap.Uint("product_id", id), zap.Error(res.Error))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}

		logger.Info("🗑️ Product deleted", zap.Uint("product_id", id))
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
