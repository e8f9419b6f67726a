package handlers

import (
	"errors"

	"payclear/internal/services/auth"
	"payclear/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler exposes portal login.
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates the handler.
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a JWT.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request format")
	}

	token, err := h.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return response.Error(c, fiber.StatusUnauthorized, "invalid email or password")
		}
		return response.ServerError(c, "login failed")
	}
	return response.Success(c, "logged in", fiber.Map{"token": token})
}
