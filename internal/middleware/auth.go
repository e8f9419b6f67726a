// Package middleware provides fiber middleware for the portal: JWT bearer
// authentication and role checks.
package middleware

import (
	"strings"

	"payclear/internal/models"
	"payclear/internal/services/auth"
	"payclear/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// ClaimsKey is the fiber locals key holding the authenticated claims.
const ClaimsKey = "claims"

// AuthMiddleware validates bearer tokens and stores the claims on the
// request.
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates the middleware.
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Handler rejects requests without a valid bearer token.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if header == "" {
		return response.Unauthorized(c)
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return response.Unauthorized(c)
	}

	claims, err := m.authService.ValidateToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return response.Unauthorized(c)
	}

	c.Locals(ClaimsKey, claims)
	return c.Next()
}

// RequireAdmin rejects non-admin sessions. Must run after Handler.
func (m *AuthMiddleware) RequireAdmin(c *fiber.Ctx) error {
	claims, ok := c.Locals(ClaimsKey).(*models.UserClaims)
	if !ok || !claims.IsAdmin() {
		return response.Error(c, fiber.StatusForbidden, "admin access required")
	}
	return c.Next()
}

// Claims extracts the authenticated claims from the request.
func Claims(c *fiber.Ctx) (*models.UserClaims, bool) {
	claims, ok := c.Locals(ClaimsKey).(*models.UserClaims)
	return claims, ok
}
