package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/junaidrashid-git/checkout-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueToken(t *testing.T) {
	tok, err := IssueToken("k", models.Principal{ID: "guest_1", Role: models.RoleGuest}, time.Hour)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (interface{}, error) { return []byte("k"), nil })
	require.NoError(t, err)
	assert.Equal(t, "guest_1", claims["user_id"])
	assert.Equal(t, "guest", claims["role"])

	_, err = IssueToken("", models.Principal{ID: "u"}, time.Hour)
	assert.Error(t, err)
}
