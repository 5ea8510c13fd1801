package auth

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/checkout-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const guestTTL = 24 * time.Hour

// POST /auth/guest
func CreateGuestUser(db *gorm.DB, secret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		guestID := "guest_" + generateRandomString(16)

		now := time.Now()
		guest := models.GuestUser{
			ID:        guestID,
			ExpiresAt: now.Add(guestTTL),
		}

		if err := db.WithContext(c.Request.Context()).Create(&guest).Error; err != nil {
			logger.Error("❌ Failed to create guest", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest"})
			return
		}

		// Issue JWT for guest
		token, err := IssueToken(secret, guest.Principal(), guest.TTL(now))
		if err != nil {
			logger.Error("❌ Guest token generation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"guest_id":   guestID,
			"token":      token,
			"expires_at": guest.ExpiresAt,
		})
	}
}

func generateRandomString(n int) string {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "rand_guest"
	}
	return hex.EncodeToString(bytes)
}
