package orderControllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/checkout-api/controllers/apierror"
	"github.com/junaidrashid-git/checkout-api/middleware"
	"github.com/junaidrashid-git/checkout-api/models"
	"github.com/junaidrashid-git/checkout-api/services"
	"go.uber.org/zap"
)

// -------- Request Structs --------
type PlaceOrderRequest struct {
	ShippingAddress models.Address  `json:"shipping_address" binding:"required"`
	BillingAddress  *models.Address `json:"billing_address"`
	PaymentMethod   string          `json:"payment_method"` // e.g. "card", "cod"
	Notes           string          `json:"notes" binding:"max=1000"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// -------- Helpers --------

func orderIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("orderID"), 10, 64)
	if err != nil || id == 0 {
		apierror.BadRequest(c, "Invalid order ID")
		return 0, false
	}
	return uint(id), true
}

func principal(c *gin.Context) (models.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok || p.ID == "" {
		apierror.Unauthorized(c)
		return models.Principal{}, false
	}
	return p, true
}

// -------- Handlers --------

// POST /user/orders
func PlaceOrderHandler(factory *services.OrderFactory, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var req PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierror.BadRequest(c, err.Error())
			return
		}

		order, err := factory.CreateOrder(c.Request.Context(), p.ID, services.CheckoutRequest{
			ShippingAddress: req.ShippingAddress,
			BillingAddress:  req.BillingAddress,
			PaymentMethod:   req.PaymentMethod,
			Notes:           req.Notes,
		})
		if err != nil {
			apierror.Write(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

// GET /user/orders and GET /admin/orders
func GetOrdersHandler(lifecycle *services.OrderLifecycle, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		orders, err := lifecycle.ListOrders(c.Request.Context(), p)
		if err != nil {
			apierror.Write(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /user/orders/:orderID and GET /admin/orders/:orderID
func GetOrderByIDHandler(lifecycle *services.OrderLifecycle, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := orderIDParam(c)
		if !ok {
			return
		}
		order, err := lifecycle.GetOrder(c.Request.Context(), id, p)
		if err != nil {
			apierror.Write(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// POST /user/orders/:orderID/cancel and POST /admin/orders/:orderID/cancel
func CancelOrderHandler(lifecycle *services.OrderLifecycle, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := orderIDParam(c)
		if !ok {
			return
		}
		order, err := lifecycle.Cancel(c.Request.Context(), id, p)
		if err != nil {
			apierror.Write(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PUT /admin/orders/:orderID/status
func UpdateOrderStatusHandler(lifecycle *services.OrderLifecycle, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderIDParam(c)
		if !ok {
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierror.BadRequest(c, err.Error())
			return
		}
		newStatus, err := models.ParseOrderStatus(req.Status)
		if err != nil {
			apierror.BadRequest(c, err.Error())
			return
		}
		order, err := lifecycle.UpdateStatus(c.Request.Context(), id, newStatus)
		if err != nil {
			apierror.Write(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PUT /admin/orders/:orderID/payment-status
func UpdatePaymentStatusHandler(lifecycle *services.OrderLifecycle, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderIDParam(c)
		if !ok {
			return
		}
		var req UpdatePaymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierror.BadRequest(c, err.Error())
			return
		}
		newStatus, err := models.ParsePaymentStatus(req.PaymentStatus)
		if err != nil {
			apierror.BadRequest(c, err.Error())
			return
		}
		order, err := lifecycle.UpdatePaymentStatus(c.Request.Context(), id, newStatus)
		if err != nil {
			apierror.Write(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
