// Package exchangerate resolves scheme exchange rates (EUR per unit of a
// currency) per card brand and day, and validates rate coverage ahead of
// settlement runs.
package exchangerate

import (
	"time"

	"payclear/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RequiredBrands are the card brands every non-EUR currency must have a rate
// for on every day of a reporting range.
var RequiredBrands = []string{models.BrandVisa, models.BrandMastercard}

// Key builds the composite lookup key: CUR_BRAND_YYYY-MM-DD, brand uppercased
// by the caller's contract.
func Key(currency, brand string, date time.Time) string {
	return currency + "_" + brand + "_" + date.Format("2006-01-02")
}

// Resolver looks up the rate for an exact (currency, brand, date) tuple and
// degrades gracefully: last known rate for the currency, then 1.0. EUR is
// always 1.0 and never looked up.
type Resolver struct {
	rates     map[string]decimal.Decimal
	lastKnown map[string]decimal.Decimal
	logger    *zap.Logger
}

// NewResolver builds a resolver from raw scheme rate rows. Rows with an
// unparseable rate are skipped with a warning.
func NewResolver(rows []models.SchemeRate, logger *zap.Logger) *Resolver {
	r := &Resolver{
		rates:     make(map[string]decimal.Decimal, len(rows)),
		lastKnown: make(map[string]decimal.Decimal),
		logger:    logger,
	}
	lastDate := make(map[string]time.Time)
	for _, row := range rows {
		rate, err := decimal.NewFromString(row.Rate)
		if err != nil {
			logger.Warn("skipping unparseable scheme rate",
				zap.String("currency", row.Currency),
				zap.String("brand", row.Brand),
				zap.String("rate", row.Rate),
			)
			continue
		}
		r.rates[Key(row.Currency, row.Brand, row.RateDate)] = rate
		if !row.RateDate.Before(lastDate[row.Currency]) {
			lastDate[row.Currency] = row.RateDate
			r.lastKnown[row.Currency] = rate
		}
	}
	return r
}

// Resolve returns the EUR conversion rate for the tuple. Missing rates fall
// back to the last known rate for the currency, then to 1.0, with a warning
// either way. This is the fail-open runtime path; hard coverage checks belong
// to the validation service.
func (r *Resolver) Resolve(currency, brand string, date time.Time) decimal.Decimal {
	if currency == "EUR" {
		return decimal.NewFromInt(1)
	}
	if rate, ok := r.rates[Key(currency, brand, date)]; ok {
		return rate
	}
	if rate, ok := r.lastKnown[currency]; ok {
		r.logger.Warn("scheme rate missing for date, using last known rate",
			zap.String("currency", currency),
			zap.String("brand", brand),
			zap.String("date", date.Format("2006-01-02")),
			zap.String("fallback_rate", rate.String()),
		)
		return rate
	}
	r.logger.Warn("no scheme rate known for currency, defaulting to 1.0",
		zap.String("currency", currency),
		zap.String("brand", brand),
		zap.String("date", date.Format("2006-01-02")),
	)
	return decimal.NewFromInt(1)
}

// LastKnown returns the most recent rate seen for a currency, ignoring brand
// and date. Used as the settlement-rate fallback when a period has no net
// sales. EUR is pinned to 1.0.
func (r *Resolver) LastKnown(currency string) (decimal.Decimal, bool) {
	if currency == "EUR" {
		return decimal.NewFromInt(1), true
	}
	rate, ok := r.lastKnown[currency]
	return rate, ok
}

// Has reports whether an exact (currency, brand, date) rate exists.
func (r *Resolver) Has(currency, brand string, date time.Time) bool {
	_, ok := r.rates[Key(currency, brand, date)]
	return ok
}
