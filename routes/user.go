package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/junaidrashid-git/checkout-api/controllers/cart"
	orderControllers "github.com/junaidrashid-git/checkout-api/controllers/order"
	productControllers "github.com/junaidrashid-git/checkout-api/controllers/product"
	"github.com/junaidrashid-git/checkout-api/middleware"
)

// SetupUserRoutes registers all “/user/*” endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, d *Deps) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken(d.JWTSecret))
	{
		// ──────────────── Shopping Cart ────────────────
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("", cartControllers.GetUserCart(d.Carts, d.Logger))                // GET /user/cart
			cartGroup.GET("/summary", cartControllers.GetCartSummary(d.Carts, d.Logger))     // GET /user/cart/summary
			cartGroup.POST("", cartControllers.AddCartItem(d.Carts, d.Logger))               // POST /user/cart
			cartGroup.POST("/validate", cartControllers.ValidateCart(d.Validator, d.Logger)) // POST /user/cart/validate
			cartGroup.PUT("/:line_id", cartControllers.UpdateCartItem(d.Carts, d.Logger))    // PUT /user/cart/:line_id
			cartGroup.DELETE("/:line_id", cartControllers.DeleteCartItem(d.Carts, d.Logger)) // DELETE /user/cart/:line_id
			cartGroup.DELETE("", cartControllers.ClearUserCart(d.Carts, d.Logger))           // DELETE /user/cart
		}

		// ──────────────── Orders ────────────────
		orderGroup := userGroup.Group("/orders")
		{
			orderGroup.POST("", orderControllers.PlaceOrderHandler(d.Factory, d.Logger))                    // POST /user/orders
			orderGroup.GET("", orderControllers.GetOrdersHandler(d.Lifecycle, d.Logger))                    // GET /user/orders
			orderGroup.GET("/:orderID", orderControllers.GetOrderByIDHandler(d.Lifecycle, d.Logger))        // GET /user/orders/:orderID
			orderGroup.POST("/:orderID/cancel", orderControllers.CancelOrderHandler(d.Lifecycle, d.Logger)) // POST /user/orders/:orderID/cancel
		}

		// ──────────────── Browse Products ────────────────
		userGroup.GET("/products", productControllers.GetProducts(d.DB, d.Logger))            // GET /user/products
		userGroup.GET("/products/:id", productControllers.GetProductByID(d.Ledger, d.Logger)) // GET /user/products/:id
	}
}
