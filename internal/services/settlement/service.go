// Package settlement orchestrates one settlement run per merchant, currency
// and period: totals fold, fee calculation, rolling reserve pass, report
// persistence.
package settlement

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"payclear/internal/metrics"
	"payclear/internal/models"
	"payclear/internal/repositories"
	"payclear/internal/repositories/cache"
	"payclear/internal/services/exchangerate"
	"payclear/internal/services/fees"
	"payclear/internal/services/notification"
	"payclear/internal/services/reserve"
	"payclear/internal/services/totals"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// DB is the slice of gorm the service needs; satisfied by *gorm.DB.
type DB interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// Service runs settlements.
type Service struct {
	db           DB
	txRepo       repositories.TransactionRepository
	merchantRepo repositories.MerchantRepository
	reportRepo   repositories.ReportRepository
	calculator   *totals.Calculator
	feeEngine    *fees.Engine
	reserves     *reserve.Handler
	validator    *exchangerate.ValidationService
	notifier     notification.Notifier
	cache        *cache.Service
	logger       *zap.Logger
	metrics      metrics.Collector
}

// Config wires the service's collaborators. Cache is optional.
type Config struct {
	DB           DB
	TxRepo       repositories.TransactionRepository
	MerchantRepo repositories.MerchantRepository
	ReportRepo   repositories.ReportRepository
	Calculator   *totals.Calculator
	FeeEngine    *fees.Engine
	Reserves     *reserve.Handler
	Validator    *exchangerate.ValidationService
	Notifier     notification.Notifier
	Cache        *cache.Service
	Logger       *zap.Logger
	Metrics      metrics.Collector
}

// NewService creates a settlement service.
func NewService(cfg Config) *Service {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NoopCollector{}
	}
	return &Service{
		db:           cfg.DB,
		txRepo:       cfg.TxRepo,
		merchantRepo: cfg.MerchantRepo,
		reportRepo:   cfg.ReportRepo,
		calculator:   cfg.Calculator,
		feeEngine:    cfg.FeeEngine,
		reserves:     cfg.Reserves,
		validator:    cfg.Validator,
		notifier:     cfg.Notifier,
		cache:        cfg.Cache,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// Generate produces one settlement report per currency the merchant
// transacted in during the period. Rate coverage is validated up front (hard
// failure); per-currency persistence runs in a single transaction each, so a
// mid-run failure rolls back cleanly and the run can simply be recomputed.
func (s *Service) Generate(ctx context.Context, merchantID uint, shopID *uint, period models.DateRange) ([]Report, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	settings, err := s.merchantRepo.GetSettings(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	currencies, err := s.txRepo.GetCurrencies(ctx, merchant.AccountID, period)
	if err != nil {
		return nil, err
	}
	if len(currencies) == 0 {
		currencies = []string{"EUR"}
	}

	if err := s.validator.Validate(ctx, period, currencies); err != nil {
		return nil, err
	}

	txs, err := s.txRepo.GetMerchantTransactions(ctx, merchant.AccountID, period, "")
	if err != nil {
		return nil, err
	}
	rateRows, err := s.loadSchemeRates(ctx, period, currencies)
	if err != nil {
		return nil, err
	}
	resolver := exchangerate.NewResolver(rateRows, s.logger)

	markup, err := decimal.NewFromString(settings.ExchangeRateMarkup)
	if err != nil {
		s.logger.Warn("invalid exchange rate markup, using 1.0",
			zap.Uint("merchant_id", merchantID),
			zap.String("markup", settings.ExchangeRateMarkup),
		)
		markup = decimal.NewFromInt(1)
	}

	// Chargeback tracking happens inside this fold and must be complete
	// before fees and reserves consume the totals.
	totalsByCurrency, err := s.calculator.Calculate(ctx, totals.Input{
		MerchantID:         merchantID,
		Transactions:       txs,
		Resolver:           resolver,
		ExchangeRateMarkup: markup,
		FxRateMarkup:       settings.FxRateMarkup,
	})
	if err != nil {
		s.metrics.RecordSettlementRun("failed")
		return nil, err
	}

	// Zero-transaction periods still settle: standing charges (monthly fee,
	// setup fee) apply on empty volume.
	if len(totalsByCurrency) == 0 {
		totalsByCurrency = map[string]totals.TransactionTotal{
			"EUR": totals.NewTransactionTotal("EUR").WithFxRate(settings.FxRateMarkup),
		}
	}

	sortedCurrencies := make([]string, 0, len(totalsByCurrency))
	for currency := range totalsByCurrency {
		sortedCurrencies = append(sortedCurrencies, currency)
	}
	sort.Strings(sortedCurrencies)

	// Standing charges (monthly, setup) bill once per run, carried on the
	// EUR report when one exists.
	standingCurrency := sortedCurrencies[0]
	if _, ok := totalsByCurrency["EUR"]; ok {
		standingCurrency = "EUR"
	}

	var reports []Report
	for _, currency := range sortedCurrencies {
		report, err := s.settleCurrency(ctx, merchantID, shopID, period, totalsByCurrency[currency], currency == standingCurrency)
		if err != nil {
			s.metrics.RecordSettlementRun("failed")
			s.logger.Error("settlement run failed",
				zap.Uint("merchant_id", merchantID),
				zap.String("currency", currency),
				zap.Error(err),
			)
			return nil, err
		}
		reports = append(reports, report)
	}

	s.metrics.RecordSettlementRun("succeeded")
	return reports, nil
}

func (s *Service) settleCurrency(ctx context.Context, merchantID uint, shopID *uint, period models.DateRange, total totals.TransactionTotal, includeStanding bool) (Report, error) {
	var report Report
	reference := uuid.NewString()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		feeLines, err := s.feeEngine.Calculate(ctx, merchantID, shopID, period, total, includeStanding)
		if err != nil {
			return err
		}

		reserveResult, err := s.reserves.Process(ctx, tx, merchantID, shopID, total, period)
		if err != nil {
			return err
		}

		if err := s.feeEngine.RecordHistory(ctx, tx, merchantID, feeLines, total, reference, period); err != nil {
			return err
		}
		if err := s.feeEngine.MarkSetupFeeCharged(ctx, tx, merchantID, feeLines); err != nil {
			return err
		}

		report = buildReport(merchantID, period, reference, total, feeLines, reserveResult)

		snapshot, err := reportSnapshot(report)
		if err != nil {
			return err
		}
		return s.reportRepo.Create(ctx, tx, &models.SettlementReport{
			MerchantID:  merchantID,
			Currency:    total.Currency,
			PeriodStart: period.Start,
			PeriodEnd:   period.End,
			Reference:   reference,
			Status:      models.ReportStatusGenerated,
			Totals:      snapshot,
		})
	})
	if err != nil {
		return Report{}, fmt.Errorf("settlement failed for merchant %d currency %s: %w", merchantID, total.Currency, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.ReportKey(reference), report); err != nil {
			s.logger.Warn("failed to cache settlement report", zap.Error(err))
		}
	}
	return report, nil
}

// RunJob wraps Generate with job-level success/failure notifications for
// background invocations.
func (s *Service) RunJob(ctx context.Context, jobID string, attempt int, merchantID uint, shopID *uint, period models.DateRange) ([]Report, error) {
	reports, err := s.Generate(ctx, merchantID, shopID, period)
	job := notification.JobInfo{
		JobID:      jobID,
		Attempt:    attempt,
		MerchantID: merchantID,
		Period:     period,
	}
	if err != nil {
		job.Error = err.Error()
		if notifyErr := s.notifier.NotifyJobFailed(ctx, job); notifyErr != nil {
			s.logger.Error("failed to send job failure alert", zap.Error(notifyErr))
		}
		return nil, err
	}
	if notifyErr := s.notifier.NotifyJobSucceeded(ctx, job); notifyErr != nil {
		s.logger.Error("failed to send job success alert", zap.Error(notifyErr))
	}
	return reports, nil
}

// loadSchemeRates serves the period's rate rows from cache when possible.
// Scheme rates for past dates never change, so a cached row set stays valid.
func (s *Service) loadSchemeRates(ctx context.Context, period models.DateRange, currencies []string) ([]models.SchemeRate, error) {
	key := cache.RateMapKey(period.Start, period.End, currencies)
	if s.cache != nil {
		var cached []models.SchemeRate
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("scheme rate cache read failed", zap.Error(err))
		}
	}

	rows, err := s.txRepo.GetSchemeRates(ctx, period, currencies)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rows); err != nil {
			s.logger.Warn("failed to cache scheme rates", zap.Error(err))
		}
	}
	return rows, nil
}

func reportSnapshot(report Report) (models.JSON, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot report: %w", err)
	}
	var snapshot models.JSON
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to snapshot report: %w", err)
	}
	return snapshot, nil
}
