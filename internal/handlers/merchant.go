package handlers

import (
	"errors"

	"payclear/internal/models"
	"payclear/internal/repositories"
	"payclear/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// MerchantHandler exposes merchant and settings administration.
type MerchantHandler struct {
	merchantRepo repositories.MerchantRepository
}

// NewMerchantHandler creates the handler.
func NewMerchantHandler(merchantRepo repositories.MerchantRepository) *MerchantHandler {
	return &MerchantHandler{merchantRepo: merchantRepo}
}

// Create registers a new merchant.
func (h *MerchantHandler) Create(c *fiber.Ctx) error {
	var merchant models.Merchant
	if err := c.BodyParser(&merchant); err != nil {
		return response.BadRequest(c, "invalid request format")
	}
	if merchant.Name == "" || merchant.Email == "" {
		return response.BadRequest(c, "name and email are required")
	}

	if _, err := h.merchantRepo.GetByAccountID(c.Context(), merchant.AccountID); err == nil {
		return response.Error(c, fiber.StatusConflict, "a merchant already exists for this processing account")
	} else if !errors.Is(err, repositories.ErrMerchantNotFound) {
		return response.ServerError(c, "failed to check processing account")
	}

	if err := h.merchantRepo.Create(c.Context(), &merchant); err != nil {
		return response.ServerError(c, "failed to create merchant")
	}
	return response.Success(c, "merchant created", fiber.Map{"merchant": merchant})
}

// Get returns one merchant.
func (h *MerchantHandler) Get(c *fiber.Ctx) error {
	merchantID, err := merchantIDParam(c)
	if err != nil {
		return response.BadRequest(c, "invalid merchant id")
	}
	merchant, err := h.merchantRepo.GetByID(c.Context(), merchantID)
	if err != nil {
		if errors.Is(err, repositories.ErrMerchantNotFound) {
			return response.NotFound(c, "merchant not found")
		}
		return response.ServerError(c, "failed to load merchant")
	}
	return response.Success(c, "merchant", fiber.Map{"merchant": merchant})
}

// CreateSettings creates the merchant's singleton settings row. A second
// create for the same merchant fails.
func (h *MerchantHandler) CreateSettings(c *fiber.Ctx) error {
	merchantID, err := merchantIDParam(c)
	if err != nil {
		return response.BadRequest(c, "invalid merchant id")
	}

	var settings models.MerchantSetting
	if err := c.BodyParser(&settings); err != nil {
		return response.BadRequest(c, "invalid request format")
	}
	settings.MerchantID = merchantID

	if err := h.merchantRepo.CreateSettings(c.Context(), &settings); err != nil {
		if errors.Is(err, repositories.ErrSettingsExist) {
			return response.Error(c, fiber.StatusConflict, "settings already exist for this merchant")
		}
		return response.ServerError(c, "failed to create settings")
	}
	return response.Success(c, "settings created", fiber.Map{"settings": settings})
}

// GetSettings returns the merchant's settings row.
func (h *MerchantHandler) GetSettings(c *fiber.Ctx) error {
	merchantID, err := merchantIDParam(c)
	if err != nil {
		return response.BadRequest(c, "invalid merchant id")
	}
	settings, err := h.merchantRepo.GetSettings(c.Context(), merchantID)
	if err != nil {
		if errors.Is(err, repositories.ErrSettingsNotFound) {
			return response.NotFound(c, "settings not found")
		}
		return response.ServerError(c, "failed to load settings")
	}
	return response.Success(c, "settings", fiber.Map{"settings": settings})
}
