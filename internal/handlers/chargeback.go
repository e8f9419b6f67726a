package handlers

import (
	"payclear/internal/middleware"
	"payclear/internal/services/chargeback"
	"payclear/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// ChargebackHandler exposes chargeback tracking state.
type ChargebackHandler struct {
	tracker *chargeback.Tracker
}

// NewChargebackHandler creates the handler.
func NewChargebackHandler(tracker *chargeback.Tracker) *ChargebackHandler {
	return &ChargebackHandler{tracker: tracker}
}

// PendingSettlements lists a merchant's chargebacks still awaiting their
// first outcome.
func (h *ChargebackHandler) PendingSettlements(c *fiber.Ctx) error {
	merchantID, err := merchantIDParam(c)
	if err != nil {
		return response.BadRequest(c, "invalid merchant id")
	}

	claims, ok := middleware.Claims(c)
	if !ok || !claims.CanAccessMerchant(merchantID) {
		return response.Error(c, fiber.StatusForbidden, "merchant access denied")
	}

	pending, err := h.tracker.GetPendingSettlements(c.Context(), merchantID)
	if err != nil {
		return response.ServerError(c, "failed to load pending chargebacks")
	}
	return response.Success(c, "pending chargebacks", fiber.Map{"chargebacks": pending})
}

type settleRequest struct {
	ApprovedIDs []string `json:"approved_ids"`
	DeclinedIDs []string `json:"declined_ids"`
}

// Settle marks chargebacks as settled. Admin only.
func (h *ChargebackHandler) Settle(c *fiber.Ctx) error {
	var req settleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request format")
	}
	if len(req.ApprovedIDs) == 0 && len(req.DeclinedIDs) == 0 {
		return response.BadRequest(c, "no transaction ids given")
	}

	if err := h.tracker.MarkAsSettled(c.Context(), req.ApprovedIDs, req.DeclinedIDs); err != nil {
		return response.ServerError(c, "failed to settle chargebacks")
	}
	return response.Success(c, "chargebacks settled", fiber.Map{
		"approved": len(req.ApprovedIDs),
		"declined": len(req.DeclinedIDs),
	})
}
