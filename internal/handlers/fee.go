package handlers

import (
	"errors"
	"time"

	"payclear/internal/middleware"
	"payclear/internal/models"
	"payclear/internal/repositories"
	"payclear/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// FeeHandler exposes fee override administration and the fee history ledger.
type FeeHandler struct {
	feeRepo repositories.FeeRepository
}

// NewFeeHandler creates the handler.
func NewFeeHandler(feeRepo repositories.FeeRepository) *FeeHandler {
	return &FeeHandler{feeRepo: feeRepo}
}

// ListTypes returns the seeded fee type catalogue.
func (h *FeeHandler) ListTypes(c *fiber.Ctx) error {
	types, err := h.feeRepo.GetFeeTypes(c.Context())
	if err != nil {
		return response.ServerError(c, "failed to load fee types")
	}
	return response.Success(c, "fee types", fiber.Map{"fee_types": types})
}

type createOverrideRequest struct {
	FeeTypeKey    string `json:"fee_type_key"`
	Amount        int64  `json:"amount"`
	EffectiveFrom string `json:"effective_from"`
	EffectiveTo   string `json:"effective_to"`
}

// CreateOverride creates a per-merchant fee override for a seeded fee type.
func (h *FeeHandler) CreateOverride(c *fiber.Ctx) error {
	merchantID, err := merchantIDParam(c)
	if err != nil {
		return response.BadRequest(c, "invalid merchant id")
	}

	var req createOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request format")
	}

	feeType, err := h.feeRepo.GetFeeTypeByKey(c.Context(), req.FeeTypeKey)
	if err != nil {
		if errors.Is(err, repositories.ErrFeeTypeNotFound) {
			return response.NotFound(c, "unknown fee type key")
		}
		return response.ServerError(c, "failed to resolve fee type")
	}

	effectiveFrom := time.Now().UTC()
	if req.EffectiveFrom != "" {
		effectiveFrom, err = time.Parse("2006-01-02", req.EffectiveFrom)
		if err != nil {
			return response.BadRequest(c, "invalid effective_from, expected YYYY-MM-DD")
		}
	}
	var effectiveTo *time.Time
	if req.EffectiveTo != "" {
		parsed, err := time.Parse("2006-01-02", req.EffectiveTo)
		if err != nil {
			return response.BadRequest(c, "invalid effective_to, expected YYYY-MM-DD")
		}
		if parsed.Before(effectiveFrom) {
			return response.BadRequest(c, "effective_to before effective_from")
		}
		effectiveTo = &parsed
	}

	override := &models.MerchantFee{
		MerchantID:    merchantID,
		FeeTypeID:     feeType.ID,
		Amount:        req.Amount,
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   effectiveTo,
		Active:        true,
	}
	if err := h.feeRepo.CreateMerchantFee(c.Context(), override); err != nil {
		return response.ServerError(c, "failed to create fee override")
	}
	return response.Success(c, "fee override created", fiber.Map{"fee": override})
}

// History lists the merchant's fee ledger rows for a period.
func (h *FeeHandler) History(c *fiber.Ctx) error {
	merchantID, err := merchantIDParam(c)
	if err != nil {
		return response.BadRequest(c, "invalid merchant id")
	}

	claims, ok := middleware.Claims(c)
	if !ok || !claims.CanAccessMerchant(merchantID) {
		return response.Error(c, fiber.StatusForbidden, "merchant access denied")
	}

	period, err := periodFromQuery(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	rows, err := h.feeRepo.GetHistory(c.Context(), merchantID, period)
	if err != nil {
		return response.ServerError(c, "failed to load fee history")
	}
	return response.Success(c, "fee history", fiber.Map{"history": rows})
}
