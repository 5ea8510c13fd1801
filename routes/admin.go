package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/junaidrashid-git/checkout-api/controllers/cart"
	orderControllers "github.com/junaidrashid-git/checkout-api/controllers/order"
	productControllers "github.com/junaidrashid-git/checkout-api/controllers/product"
	"github.com/junaidrashid-git/checkout-api/middleware"
)

// SetupAdminRoutes registers all “/admin/*” endpoints. Requires API‐Key middleware.
func SetupAdminRoutes(r *gin.Engine, d *Deps) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey(d.AdminAPIKey))
	{
		// ─────────── Order Management ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", orderControllers.GetOrdersHandler(d.Lifecycle, d.Logger))
			orderAdmin.GET("/export-excel", orderControllers.ExportOrdersToExcel(d.Lifecycle, d.Logger))
			if d.Hub != nil {
				orderAdmin.GET("/ws", d.Hub.OrderWebSocketHandler)
			}
			orderAdmin.GET("/:orderID", orderControllers.GetOrderByIDHandler(d.Lifecycle, d.Logger))
			orderAdmin.PUT("/:orderID/status", orderControllers.UpdateOrderStatusHandler(d.Lifecycle, d.Logger))
			orderAdmin.PUT("/:orderID/payment-status", orderControllers.UpdatePaymentStatusHandler(d.Lifecycle, d.Logger))
			orderAdmin.POST("/:orderID/cancel", orderControllers.CancelOrderHandler(d.Lifecycle, d.Logger))
		}

		// ─────────── Catalog & Stock ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.GET("/export-excel", productControllers.ExportStockToExcel(d.DB, d.Logger))
			productAdmin.POST("", productControllers.CreateProduct(d.DB, d.Logger))
			productAdmin.PUT("/:id", productControllers.UpdateProduct(d.DB, d.Logger))
			productAdmin.POST("/:id/restock", productControllers.RestockProduct(d.Ledger, d.Logger))
			productAdmin.DELETE("/:id", productControllers.DeleteProduct(d.DB, d.Logger))
		}

		// ─────────── Cart Support ───────────
		cartMgmt := adminGroup.Group("/user-cart")
		{
			cartMgmt.GET("/:user_id", cartControllers.GetAdminUserCart(d.Carts, d.Logger))
		}
	}
}
