package exchangerate

import (
	"context"
	"fmt"
	"sort"

	"payclear/internal/models"
	"payclear/internal/repositories"
	"payclear/internal/services/notification"

	"go.uber.org/zap"
)

// MissingRatesError reports the exact coverage gaps found by a validation
// pass: currency -> brand -> dates with no rate.
type MissingRatesError struct {
	Missing notification.MissingRates
	Period  models.DateRange
}

func (e *MissingRatesError) Error() string {
	gaps := 0
	for _, brands := range e.Missing {
		for _, dates := range brands {
			gaps += len(dates)
		}
	}
	return fmt.Sprintf("scheme rates missing: %d currencies, %d gaps between %s and %s",
		len(e.Missing), gaps,
		e.Period.Start.Format("2006-01-02"), e.Period.End.Format("2006-01-02"))
}

// ValidationService is the hard precondition check run before settlement
// generation: every day in the range must have a rate for every required
// brand and every non-EUR currency. Distinct from the fail-open runtime
// lookup in Resolver.
type ValidationService struct {
	txRepo   repositories.TransactionRepository
	notifier notification.Notifier
	logger   *zap.Logger
}

// NewValidationService creates a validation service.
func NewValidationService(txRepo repositories.TransactionRepository, notifier notification.Notifier, logger *zap.Logger) *ValidationService {
	return &ValidationService{txRepo: txRepo, notifier: notifier, logger: logger}
}

// Validate checks rate coverage for the period and currencies. On gaps it
// fires a missing-rates alert and returns a *MissingRatesError.
func (s *ValidationService) Validate(ctx context.Context, period models.DateRange, currencies []string) error {
	rows, err := s.txRepo.GetSchemeRates(ctx, period, currencies)
	if err != nil {
		return fmt.Errorf("failed to load scheme rates for validation: %w", err)
	}

	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		seen[Key(row.Currency, row.Brand, row.RateDate)] = struct{}{}
	}

	missing := notification.MissingRates{}
	for _, currency := range currencies {
		if currency == "EUR" {
			continue
		}
		for _, brand := range RequiredBrands {
			for _, day := range period.Days() {
				if _, ok := seen[Key(currency, brand, day)]; ok {
					continue
				}
				if missing[currency] == nil {
					missing[currency] = make(map[string][]string)
				}
				missing[currency][brand] = append(missing[currency][brand], day.Format("2006-01-02"))
			}
		}
	}

	if len(missing) == 0 {
		return nil
	}

	for _, brands := range missing {
		for brand := range brands {
			sort.Strings(brands[brand])
		}
	}

	s.logger.Error("scheme rate validation failed",
		zap.Int("currencies_missing", len(missing)),
		zap.Time("period_start", period.Start),
		zap.Time("period_end", period.End),
	)
	if err := s.notifier.NotifyMissingRates(ctx, missing, period); err != nil {
		s.logger.Error("failed to send missing-rates alert", zap.Error(err))
	}

	return &MissingRatesError{Missing: missing, Period: period}
}
