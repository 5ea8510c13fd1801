package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
	RoleAdmin Role = "admin"
)

// Principal is the authenticated caller resolved by the auth middleware.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccess reports whether p may act on a resource owned by ownerID.
func (p Principal) CanAccess(ownerID string) bool {
	return p.IsAdmin() || p.ID == ownerID
}

// GuestUser is an anonymous shopper issued a short-lived token by /auth/guest.
type GuestUser struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

func (g GuestUser) Principal() Principal {
	return Principal{ID: g.ID, Role: RoleGuest}
}

// TTL is how long a token issued at now may live.
func (g GuestUser) TTL(now time.Time) time.Duration {
	if !g.ExpiresAt.After(now) {
		return 0
	}
	return g.ExpiresAt.Sub(now)
}

// Address is stored embedded on orders as an immutable snapshot.
type Address struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

var ErrInvalidAddress = errors.New("invalid address")

// Validate checks the required fields after trimming whitespace.
func (a Address) Validate() error {
	var missing []string
	if strings.TrimSpace(a.Line1) == "" {
		missing = append(missing, "line1")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		missing = append(missing, "postal_code")
	}
	if strings.TrimSpace(a.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidAddress, strings.Join(missing, ", "))
	}
	return nil
}

// IsZero reports whether no field was supplied.
func (a Address) IsZero() bool {
	return a == Address{}
}
