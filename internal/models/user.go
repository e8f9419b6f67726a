package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// Portal roles.
const (
	RoleAdmin    = "admin"
	RoleMerchant = "merchant"
)

// User is a portal login. Merchant users are scoped to one merchant; admins
// see everything.
type User struct {
	gorm.Model
	Email       string `gorm:"uniqueIndex;not null"`
	Password    string `gorm:"not null"` // bcrypt hash
	Name        string `gorm:"not null"`
	Role        string `gorm:"default:'merchant'"`
	MerchantID  *uint  `gorm:"index"`
	Status      string `gorm:"default:'active'"`
	LastLoginAt time.Time
}

// UserClaims is the JWT payload for portal sessions.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID     uint   `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	MerchantID *uint  `json:"merchant_id,omitempty"`
}

// IsAdmin reports whether the claims carry the admin role.
func (c *UserClaims) IsAdmin() bool { return c.Role == RoleAdmin }

// CanAccessMerchant reports whether the claims may read the given merchant.
func (c *UserClaims) CanAccessMerchant(merchantID uint) bool {
	if c.IsAdmin() {
		return true
	}
	return c.MerchantID != nil && *c.MerchantID == merchantID
}
