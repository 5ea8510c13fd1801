package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/junaidrashid-git/checkout-api/models"
)

// IssueToken signs an HS256 token carrying the principal's id and role.
func IssueToken(secret string, p models.Principal, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	claims := jwt.MapClaims{
		"user_id": p.ID,
		"role":    string(p.Role),
		"exp":     time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
