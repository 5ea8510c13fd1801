package cartControllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/checkout-api/controllers/apierror"
	"github.com/junaidrashid-git/checkout-api/middleware"
	"github.com/junaidrashid-git/checkout-api/services"
	"go.uber.org/zap"
)

type CartItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type CartQuantityInput struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func lineIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("line_id"), 10, 64)
	if err != nil || id == 0 {
		apierror.BadRequest(c, "Invalid cart line ID")
		return 0, false
	}
	return uint(id), true
}

func callerID(c *gin.Context) (string, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok || p.ID == "" {
		apierror.Unauthorized(c)
		return "", false
	}
	return p.ID, true
}

// POST /user/cart
func AddCartItem(carts *services.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}

		var input CartItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apierror.BadRequest(c, "Invalid input: "+err.Error())
			return
		}

		line, err := carts.AddLine(c.Request.Context(), userID, input.ProductID, input.Quantity)
		if err != nil {
			apierror.Write(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, line)
	}
}

// PUT /user/cart/:line_id
func UpdateCartItem(carts *services.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		lineID, ok := lineIDParam(c)
		if !ok {
			return
		}

		var input CartQuantityInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apierror.BadRequest(c, "Invalid input: "+err.Error())
			return
		}

		line, err := carts.SetLineQuantity(c.Request.Context(), userID, lineID, input.Quantity)
		if err != nil {
			apierror.Write(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, line)
	}
}

// DELETE /user/cart/:line_id
func DeleteCartItem(carts *services.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		lineID, ok := lineIDParam(c)
		if !ok {
			return
		}

		if err := carts.RemoveLine(c.Request.Context(), userID, lineID); err != nil {
			apierror.Write(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart item deleted"})
	}
}

// DELETE /user/cart
func ClearUserCart(carts *services.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		if err := carts.Clear(c.Request.Context(), userID); err != nil {
			apierror.Write(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}

// GET /user/cart
func GetUserCart(carts *services.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		lines, err := carts.ListLines(c.Request.Context(), userID)
		if err != nil {
			apierror.Write(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, lines)
	}
}

// GET /user/cart/summary
func GetCartSummary(carts *services.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		summary, err := carts.Summarize(c.Request.Context(), userID)
		if err != nil {
			apierror.Write(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// POST /user/cart/validate
func ValidateCart(validator *services.CartValidator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		result, err := validator.Validate(c.Request.Context(), userID)
		if err != nil {
			apierror.Write(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// GET /admin/user-cart/:user_id
func GetAdminUserCart(carts *services.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		if userID == "" {
			apierror.BadRequest(c, "user_id is required")
			return
		}

		lines, err := carts.ListLines(c.Request.Context(), userID)
		if err != nil {
			apierror.Write(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, lines)
	}
}
