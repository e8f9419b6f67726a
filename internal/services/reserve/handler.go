// Package reserve manages rolling reserve holdbacks: a configured percentage
// of each settlement period's net sales is held in EUR and released after the
// merchant's holding period.
package reserve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payclear/internal/metrics"
	"payclear/internal/models"
	"payclear/internal/repositories"
	"payclear/internal/services/totals"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Result is the outcome of one reserve pass for a settlement run.
type Result struct {
	NewEntry *models.RollingReserveEntry
	Released []models.RollingReserveEntry
}

// ReleasedTotalEur sums the released entries in EUR major units.
func (r *Result) ReleasedTotalEur() decimal.Decimal {
	var total decimal.Decimal
	for _, entry := range r.Released {
		total = total.Add(decimal.NewFromInt(entry.ReserveAmountEur).Shift(-2))
	}
	return total
}

// Handler computes new holdbacks and runs the release sweep.
type Handler struct {
	merchantRepo repositories.MerchantRepository
	reserveRepo  repositories.ReserveRepository
	logger       *zap.Logger
	metrics      metrics.Collector
	now          func() time.Time
}

// NewHandler creates a reserve handler.
func NewHandler(merchantRepo repositories.MerchantRepository, reserveRepo repositories.ReserveRepository, logger *zap.Logger, collector metrics.Collector) *Handler {
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &Handler{
		merchantRepo: merchantRepo,
		reserveRepo:  reserveRepo,
		logger:       logger,
		metrics:      collector,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Process creates the period's holdback entry (when a reserve percentage is
// configured) and releases every previously held entry now past its due date.
// Entry amounts are fixed at creation; a wrong rate is corrected with a
// compensating entry, never an edit.
func (h *Handler) Process(ctx context.Context, tx *gorm.DB, merchantID uint, shopID *uint, total totals.TransactionTotal, period models.DateRange) (*Result, error) {
	percentage, holdingDays, err := h.reserveConfig(ctx, merchantID, shopID)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if percentage > 0 {
		entry, err := h.createEntry(ctx, tx, merchantID, total, period, percentage, holdingDays)
		if err != nil {
			return nil, err
		}
		result.NewEntry = entry
	}

	released, err := h.ReleaseDue(ctx, tx, merchantID)
	if err != nil {
		return nil, err
	}
	result.Released = released
	return result, nil
}

// ReleaseDue releases every pending entry past its due date. Idempotent: the
// status predicate in the update means re-running on released entries is a
// no-op.
func (h *Handler) ReleaseDue(ctx context.Context, tx *gorm.DB, merchantID uint) ([]models.RollingReserveEntry, error) {
	asOf := h.now()
	releasable, err := h.reserveRepo.GetReleasable(ctx, merchantID, asOf)
	if err != nil {
		return nil, err
	}
	if len(releasable) == 0 {
		return nil, nil
	}

	count, err := h.reserveRepo.Release(ctx, tx, merchantID, asOf)
	if err != nil {
		return nil, err
	}
	h.logger.Info("rolling reserves released",
		zap.Uint("merchant_id", merchantID),
		zap.Int64("count", count),
	)
	h.metrics.RecordReservesReleased(int(count))
	return releasable, nil
}

func (h *Handler) createEntry(ctx context.Context, tx *gorm.DB, merchantID uint, total totals.TransactionTotal, period models.DateRange, percentage int64, holdingDays int) (*models.RollingReserveEntry, error) {
	reserveAmount := total.NetSales().Mul(decimal.NewFromInt(percentage)).Shift(-4)
	if !reserveAmount.IsPositive() {
		return nil, nil
	}

	reserveEur := reserveAmount
	if total.Currency != "EUR" && total.ExchangeRate.IsPositive() {
		reserveEur = reserveAmount.DivRound(total.ExchangeRate, 2)
	}

	entry := &models.RollingReserveEntry{
		MerchantID:       merchantID,
		OriginalAmount:   reserveAmount.Shift(2).Round(0).IntPart(),
		OriginalCurrency: total.Currency,
		ReserveAmountEur: reserveEur.Shift(2).Round(0).IntPart(),
		ExchangeRate:     total.ExchangeRate.String(),
		PeriodStart:      period.Start,
		PeriodEnd:        period.End,
		ReleaseDueDate:   period.End.AddDate(0, 0, holdingDays),
		Status:           models.ReserveStatusPending,
	}
	if err := h.reserveRepo.Create(ctx, tx, entry); err != nil {
		h.logger.Error("failed to create reserve entry",
			zap.Uint("merchant_id", merchantID),
			zap.String("currency", total.Currency),
			zap.Error(err),
		)
		return nil, err
	}
	h.metrics.RecordReserveCreated()
	return entry, nil
}

// reserveConfig resolves the effective reserve percentage and holding period:
// shop settings win over merchant settings when a shop is in scope. A
// merchant with no settings at all holds no reserve.
func (h *Handler) reserveConfig(ctx context.Context, merchantID uint, shopID *uint) (int64, int, error) {
	if shopID != nil {
		settings, err := h.merchantRepo.GetShopSettings(ctx, *shopID)
		if err == nil {
			return settings.RollingReservePercentage, settings.HoldingPeriodDays, nil
		}
		if !errors.Is(err, repositories.ErrSettingsNotFound) {
			return 0, 0, fmt.Errorf("failed to load shop reserve config: %w", err)
		}
	}
	settings, err := h.merchantRepo.GetSettings(ctx, merchantID)
	if err != nil {
		if errors.Is(err, repositories.ErrSettingsNotFound) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to load reserve config: %w", err)
	}
	return settings.RollingReservePercentage, settings.HoldingPeriodDays, nil
}
