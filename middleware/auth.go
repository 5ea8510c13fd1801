package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/junaidrashid-git/checkout-api/models"
)

const principalKey = "principal"

// ValidateToken resolves the bearer JWT into a principal for downstream handlers.
func ValidateToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the token from the header
		tokenString := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			return
		}

		// Parse the token
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			// Ensure the token method is valid
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid token signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}
		userID, _ := claims["user_id"].(string)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}
		role := models.RoleUser
		if r, _ := claims["role"].(string); r == string(models.RoleGuest) {
			role = models.RoleGuest
		}

		setPrincipal(c, models.Principal{ID: userID, Role: role})
		c.Next()
	}
}

func setPrincipal(c *gin.Context, p models.Principal) {
	c.Set(principalKey, p)
	c.Set("user_id", p.ID)
}

// CurrentPrincipal returns the caller set by ValidateToken or ValidateAPIKey.
func CurrentPrincipal(c *gin.Context) (models.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}
