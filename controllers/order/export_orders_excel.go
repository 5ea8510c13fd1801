package orderControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/checkout-api/middleware"
	"github.com/junaidrashid-git/checkout-api/services"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
)

var exportHeaders = []string{
	"OrderID", "OrderNumber", "UserID", "Status", "PaymentStatus", "PaymentMethod",
	"TotalAmount", "ProductID", "ProductName", "SKU", "UnitPrice", "Quantity",
	"LineTotal", "ShippingCity", "ShippingCountry", "CreatedAt",
}

// GET /admin/orders/export-excel writes one row per order line.
func ExportOrdersToExcel(lifecycle *services.OrderLifecycle, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := middleware.CurrentPrincipal(c)
		orders, err := lifecycle.ListOrders(c.Request.Context(), p)
		if err != nil {
			logger.Error("❌ Failed to fetch orders for export", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		// Header row
		headerRow := sheet.AddRow()
		for _, h := range exportHeaders {
			headerRow.AddCell().SetValue(h)
		}

		// Data rows
		for _, o := range orders {
			for _, item := range o.Items {
				row := sheet.AddRow()
				row.AddCell().SetValue(o.ID)
				row.AddCell().SetValue(o.OrderNumber)
				row.AddCell().SetValue(o.UserID)
				row.AddCell().SetValue(string(o.Status))
				row.AddCell().SetValue(string(o.PaymentStatus))
				row.AddCell().SetValue(o.PaymentMethod)
				row.AddCell().SetValue(o.TotalAmount.StringFixed(2))
				row.AddCell().SetValue(item.ProductID)
				row.AddCell().SetValue(item.ProductName)
				row.AddCell().SetValue(item.ProductSKU)
				row.AddCell().SetValue(item.UnitPrice.StringFixed(2))
				row.AddCell().SetValue(item.Quantity)
				row.AddCell().SetValue(item.LineTotal.StringFixed(2))
				row.AddCell().SetValue(o.ShippingAddress.City)
				row.AddCell().SetValue(o.ShippingAddress.Country)
				row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
			}
		}

		// Set response headers for download
		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			logger.Error("❌ Failed to write Excel file", zap.Error(err))
			return
		}
	}
}
