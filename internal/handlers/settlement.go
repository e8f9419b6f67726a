package handlers

import (
	"errors"
	"time"

	"payclear/internal/middleware"
	"payclear/internal/models"
	"payclear/internal/repositories"
	"payclear/internal/services/exchangerate"
	"payclear/internal/services/fees"
	"payclear/internal/services/settlement"
	"payclear/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// SettlementHandler exposes settlement generation and report lookup.
type SettlementHandler struct {
	service    *settlement.Service
	reportRepo repositories.ReportRepository
}

// NewSettlementHandler creates the handler.
func NewSettlementHandler(service *settlement.Service, reportRepo repositories.ReportRepository) *SettlementHandler {
	return &SettlementHandler{service: service, reportRepo: reportRepo}
}

type generateRequest struct {
	MerchantID uint   `json:"merchant_id"`
	ShopID     *uint  `json:"shop_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// Generate runs a settlement for a merchant and period.
func (h *SettlementHandler) Generate(c *fiber.Ctx) error {
	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request format")
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return response.BadRequest(c, "invalid start_date, expected YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return response.BadRequest(c, "invalid end_date, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return response.BadRequest(c, "end_date before start_date")
	}

	claims, ok := middleware.Claims(c)
	if !ok || !claims.CanAccessMerchant(req.MerchantID) {
		return response.Error(c, fiber.StatusForbidden, "merchant access denied")
	}

	reports, err := h.service.Generate(c.Context(), req.MerchantID, req.ShopID, models.NewDateRange(start, end))
	if err != nil {
		var missing *exchangerate.MissingRatesError
		switch {
		case errors.As(err, &missing):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "scheme rates missing for the requested period",
				"missing": missing.Missing,
			})
		case errors.Is(err, repositories.ErrMerchantNotFound),
			errors.Is(err, fees.ErrMerchantNotFound):
			return response.NotFound(c, "merchant not found")
		case errors.Is(err, repositories.ErrSettingsNotFound),
			errors.Is(err, fees.ErrSettingsMissing):
			return response.BadRequest(c, "merchant has no settlement settings")
		}
		return response.ServerError(c, "settlement generation failed")
	}

	return response.Success(c, "settlement generated", fiber.Map{"reports": reports})
}

// ListReports lists a merchant's persisted reports for a period.
func (h *SettlementHandler) ListReports(c *fiber.Ctx) error {
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

	reports, err := h.reportRepo.ListByMerchant(c.Context(), merchantID, period)
	if err != nil {
		return response.ServerError(c, "failed to list reports")
	}
	return response.Success(c, "reports", fiber.Map{"reports": reports})
}

// GetReport fetches a persisted settlement report by reference.
func (h *SettlementHandler) GetReport(c *fiber.Ctx) error {
	reference := c.Params("reference")
	report, err := h.reportRepo.GetByReference(c.Context(), reference)
	if err != nil {
		if errors.Is(err, repositories.ErrReportNotFound) {
			return response.NotFound(c, "report not found")
		}
		return response.ServerError(c, "failed to load report")
	}

	claims, ok := middleware.Claims(c)
	if !ok || !claims.CanAccessMerchant(report.MerchantID) {
		return response.Error(c, fiber.StatusForbidden, "merchant access denied")
	}

	return response.Success(c, "report", fiber.Map{"report": report})
}
