package handlers

import (
	"errors"
	"strconv"
	"time"

	"payclear/internal/middleware"
	"payclear/internal/models"
	"payclear/internal/repositories"
	"payclear/internal/services/reserve"
	"payclear/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// ReserveHandler exposes rolling reserve balances and the release sweep.
type ReserveHandler struct {
	handler     *reserve.Handler
	reserveRepo repositories.ReserveRepository
}

// NewReserveHandler creates the handler.
func NewReserveHandler(handler *reserve.Handler, reserveRepo repositories.ReserveRepository) *ReserveHandler {
	return &ReserveHandler{handler: handler, reserveRepo: reserveRepo}
}

// List returns a merchant's reserve entries, optionally filtered by status.
func (h *ReserveHandler) List(c *fiber.Ctx) error {
	merchantID, err := merchantIDParam(c)
	if err != nil {
		return response.BadRequest(c, "invalid merchant id")
	}

	claims, ok := middleware.Claims(c)
	if !ok || !claims.CanAccessMerchant(merchantID) {
		return response.Error(c, fiber.StatusForbidden, "merchant access denied")
	}

	entries, err := h.reserveRepo.GetByMerchant(c.Context(), merchantID, c.Query("status"))
	if err != nil {
		return response.ServerError(c, "failed to load reserves")
	}

	pendingEur, err := h.reserveRepo.PendingTotalEur(c.Context(), merchantID)
	if err != nil {
		return response.ServerError(c, "failed to load reserves")
	}

	return response.Success(c, "reserves", fiber.Map{
		"entries":           entries,
		"pending_total_eur": float64(pendingEur) / 100,
	})
}

// ReleaseSweep runs the release sweep for a merchant. Admin only; idempotent.
func (h *ReserveHandler) ReleaseSweep(c *fiber.Ctx) error {
	merchantID, err := merchantIDParam(c)
	if err != nil {
		return response.BadRequest(c, "invalid merchant id")
	}

	released, err := h.handler.ReleaseDue(c.Context(), nil, merchantID)
	if err != nil {
		return response.ServerError(c, "release sweep failed")
	}

	return response.Success(c, "release sweep complete", fiber.Map{
		"released_count": len(released),
		"released":       released,
	})
}

func merchantIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("merchantID"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// periodFromQuery parses the start/end query parameters into a date range.
func periodFromQuery(c *fiber.Ctx) (models.DateRange, error) {
	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		return models.DateRange{}, errors.New("invalid start, expected YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		return models.DateRange{}, errors.New("invalid end, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return models.DateRange{}, errors.New("end before start")
	}
	return models.NewDateRange(start, end), nil
}
