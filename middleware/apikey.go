package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/checkout-api/models"
)

// ValidateAPIKey admits admin callers holding the X-API-KEY secret.
func ValidateAPIKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-API-KEY")
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
			return
		}
		setPrincipal(c, models.Principal{ID: "admin", Role: models.RoleAdmin})
		c.Next()
	}
}
