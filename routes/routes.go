package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/junaidrashid-git/checkout-api/controllers/order"
	"github.com/junaidrashid-git/checkout-api/inventory"
	"github.com/junaidrashid-git/checkout-api/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps carries the services the route groups hand to their controllers.
type Deps struct {
	DB          *gorm.DB
	Logger      *zap.Logger
	JWTSecret   string
	AdminAPIKey string

	Ledger    *inventory.Ledger
	Carts     *services.CartService
	Validator *services.CartValidator
	Factory   *services.OrderFactory
	Lifecycle *services.OrderLifecycle
	Hub       *orderControllers.Hub
}

// SetupRoutes is the single entry‐point that wires up Auth, User, and Admin route groups.
func SetupRoutes(r *gin.Engine, d *Deps) {
	// 1️⃣ Public Auth routes (no middleware)
	SetupAuthRoutes(r, d)

	// 2️⃣ User routes (JWT‐protected)
	SetupUserRoutes(r, d)

	// 3️⃣ Admin routes (API‐Key‐protected)
	SetupAdminRoutes(r, d)
}
