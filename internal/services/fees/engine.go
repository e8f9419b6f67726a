package fees

import (
	"context"
	"errors"
	"fmt"

	"payclear/internal/metrics"
	"payclear/internal/models"
	"payclear/internal/repositories"
	"payclear/internal/services/totals"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine merges standard and custom fees for a merchant and period, applies
// frequency gating and records applications to the fee history ledger.
type Engine struct {
	merchantRepo repositories.MerchantRepository
	feeRepo      repositories.FeeRepository
	standard     *StandardFeeHandler
	custom       *CustomFeeHandler
	frequency    *FrequencyHandler
	logger       *zap.Logger
	metrics      metrics.Collector
}

// NewEngine creates a fee calculation engine.
func NewEngine(
	merchantRepo repositories.MerchantRepository,
	feeRepo repositories.FeeRepository,
	logger *zap.Logger,
	collector metrics.Collector,
) *Engine {
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &Engine{
		merchantRepo: merchantRepo,
		feeRepo:      feeRepo,
		standard:     NewStandardFeeHandler(),
		custom:       NewCustomFeeHandler(feeRepo),
		frequency:    NewFrequencyHandler(feeRepo),
		logger:       logger,
		metrics:      collector,
	}
}

// Calculate computes all fee lines for the merchant, period and currency
// totals. An unknown merchant or a merchant without settings is a hard
// failure, never an empty fee list.
//
// Standing charges (monthly, yearly, one_time) bill per run, not per
// currency; callers settling several currencies in one run pass
// includeStanding on exactly one of them so the ledger never receives two
// rows for the same fee type and period.
func (e *Engine) Calculate(ctx context.Context, merchantID uint, shopID *uint, period models.DateRange, total totals.TransactionTotal, includeStanding bool) ([]Line, error) {
	if _, err := e.merchantRepo.GetByID(ctx, merchantID); err != nil {
		if errors.Is(err, repositories.ErrMerchantNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrMerchantNotFound, merchantID)
		}
		return nil, err
	}

	settings, err := e.merchantRepo.GetSettings(ctx, merchantID)
	if err != nil {
		if errors.Is(err, repositories.ErrSettingsNotFound) {
			return nil, fmt.Errorf("%w: merchant %d", ErrSettingsMissing, merchantID)
		}
		return nil, err
	}

	lines := e.standard.Calculate(settings, total)

	customLines, err := e.custom.Calculate(ctx, merchantID, shopID, period.Start, total)
	if err != nil {
		return nil, err
	}
	lines = append(lines, customLines...)

	typesByKey, err := e.feeTypesByKey(ctx)
	if err != nil {
		return nil, err
	}

	var applied []Line
	for _, line := range lines {
		if !includeStanding && standingFrequency(line.Frequency) {
			continue
		}
		if line.FeeTypeID == 0 {
			if ft, ok := typesByKey[line.Key]; ok {
				line.FeeTypeID = ft.ID
			}
		}
		ok, err := e.frequency.ShouldApply(ctx, merchantID, line.FeeTypeID, line.Frequency, period.Start)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		applied = append(applied, line)
	}

	e.metrics.RecordFeeLines(len(applied))
	return applied, nil
}

// RecordHistory appends one ledger row per applied fee line, inside the
// caller's settlement transaction. The ledger is what one_time gating reads,
// so the rows must land in the same transaction as the report.
func (e *Engine) RecordHistory(ctx context.Context, tx *gorm.DB, merchantID uint, lines []Line, total totals.TransactionTotal, reportReference string, period models.DateRange) error {
	for _, line := range lines {
		history := &models.FeeHistory{
			MerchantID:      merchantID,
			FeeTypeID:       line.FeeTypeID,
			BaseAmount:      total.Sales.Amount.Shift(2).Round(0).IntPart(),
			BaseCurrency:    total.Currency,
			FeeAmountEur:    line.Amount.Shift(2).Round(0).IntPart(),
			ExchangeRate:    total.ExchangeRate.String(),
			AppliedDate:     period.Start,
			ReportReference: reportReference,
		}
		if err := e.feeRepo.RecordFeeHistory(ctx, tx, history); err != nil {
			e.logger.Error("failed to record fee history",
				zap.Uint("merchant_id", merchantID),
				zap.String("fee", line.Key),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

// MarkSetupFeeCharged flips the one-shot setup flag when a setup fee line was
// emitted, inside the caller's settlement transaction.
func (e *Engine) MarkSetupFeeCharged(ctx context.Context, tx *gorm.DB, merchantID uint, lines []Line) error {
	for _, line := range lines {
		if line.Key != models.FeeKeySetup {
			continue
		}
		settings, err := e.merchantRepo.GetSettings(ctx, merchantID)
		if err != nil {
			return err
		}
		settings.SetupFeeCharged = true
		return e.merchantRepo.SaveSettings(ctx, tx, settings)
	}
	return nil
}

func (e *Engine) feeTypesByKey(ctx context.Context) (map[string]models.FeeType, error) {
	types, err := e.feeRepo.GetFeeTypes(ctx)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]models.FeeType, len(types))
	for _, ft := range types {
		byKey[ft.Key] = ft
	}
	return byKey, nil
}
