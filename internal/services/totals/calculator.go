package totals

import (
	"context"
	"fmt"
	"strings"

	"payclear/internal/metrics"
	"payclear/internal/models"
	"payclear/internal/services/chargeback"
	"payclear/internal/services/exchangerate"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ratePrecision is the rounding precision of the final settlement exchange
// rate per currency. Most currencies settle at 2 decimals; low-unit-value
// currencies need more to stay meaningful.
var ratePrecision = map[string]int32{
	"JPY": 4,
	"HUF": 4,
	"ISK": 4,
	"KRW": 4,
}

const defaultRatePrecision int32 = 2

// ChargebackSink receives chargeback snapshots discovered during a fold.
type ChargebackSink interface {
	Record(ctx context.Context, merchantID uint, data chargeback.Data) error
}

// Input is one calculation request: a merchant's raw transactions for a
// period plus the pre-fetched rate resolver and the merchant's markups.
type Input struct {
	MerchantID   uint
	Transactions []models.Transaction
	Resolver     *exchangerate.Resolver
	// ExchangeRateMarkup multiplies the settlement rate of non-EUR
	// currencies, e.g. 1.01.
	ExchangeRateMarkup decimal.Decimal
	// FxRateMarkup is attached to every currency total, in basis points.
	FxRateMarkup int64
}

// Calculator folds transactions into per-currency TransactionTotals.
type Calculator struct {
	sink    ChargebackSink
	logger  *zap.Logger
	metrics metrics.Collector
}

// NewCalculator creates a calculator.
func NewCalculator(sink ChargebackSink, logger *zap.Logger, collector metrics.Collector) *Calculator {
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &Calculator{sink: sink, logger: logger, metrics: collector}
}

// Calculate folds the input into one TransactionTotal per currency. Any
// failure during the fold is logged with merchant context and returned; no
// partial totals are ever handed out.
func (c *Calculator) Calculate(ctx context.Context, in Input) (map[string]TransactionTotal, error) {
	result := make(map[string]TransactionTotal)

	for _, tx := range in.Transactions {
		total, ok := result[tx.Currency]
		if !ok {
			total = NewTransactionTotal(tx.Currency)
		}

		brand := strings.ToUpper(tx.BinBrand)
		rate := in.Resolver.Resolve(tx.Currency, brand, tx.AddedDate)
		amount := decimal.NewFromInt(tx.Amount).Shift(-2)
		eur := amount.Mul(rate)

		var err error
		total, err = c.fold(ctx, in.MerchantID, total, tx, amount, eur, rate)
		if err != nil {
			c.logger.Error("transaction fold failed",
				zap.Uint("merchant_id", in.MerchantID),
				zap.String("transaction_id", tx.TransactionID),
				zap.String("currency", tx.Currency),
				zap.Error(err),
			)
			return nil, err
		}
		result[tx.Currency] = total
	}

	for currency, total := range result {
		result[currency] = c.finalize(total, in)
	}
	return result, nil
}

func (c *Calculator) fold(ctx context.Context, merchantID uint, total TransactionTotal, tx models.Transaction, amount, eur, rate decimal.Decimal) (TransactionTotal, error) {
	status := strings.ToUpper(tx.TransactionStatus)

	switch strings.ToUpper(tx.TransactionType) {
	case models.TransactionTypeSale:
		switch status {
		case models.TransactionStatusApproved:
			return total.WithSale(amount, eur), nil
		case models.TransactionStatusDeclined:
			return total.WithDeclinedSale(amount, eur), nil
		}
		return total, nil

	case models.TransactionTypeRefund, models.TransactionTypePartialRefund:
		if status == models.TransactionStatusApproved {
			return total.WithRefund(amount, eur), nil
		}
		return total, nil

	case models.TransactionTypeChargeback:
		data := chargeback.Data{
			TransactionID: tx.TransactionID,
			Amount:        amount,
			Currency:      tx.Currency,
			AmountEur:     eur,
			ExchangeRate:  rate,
			Status:        status,
			ProcessedDate: tx.AddedDate,
		}
		if err := c.sink.Record(ctx, merchantID, data); err != nil {
			return total, fmt.Errorf("failed to record chargeback %s: %w", tx.TransactionID, err)
		}
		return total.WithChargeback(status, amount, eur), nil

	case models.TransactionTypePayout:
		return total.WithPayout(status, amount, eur), nil
	}

	// Unknown types do not contribute.
	return total, nil
}

// finalize computes the settlement exchange rate for the currency and
// attaches the FX markup. With positive net EUR sales the rate is
// netSales/netSalesEur; otherwise the last known scheme rate keeps the
// settlement usable without dividing by zero. Non-EUR rates get the
// merchant's markup and are rounded to the currency's precision. EUR is
// always 1.0.
func (c *Calculator) finalize(total TransactionTotal, in Input) TransactionTotal {
	total = total.WithFxRate(in.FxRateMarkup)

	if total.Currency == "EUR" {
		return total.WithExchangeRate(decimal.NewFromInt(1))
	}

	// The settlement rate is expressed as currency units per EUR. Scheme
	// rates are EUR per unit, so the degenerate fallback inverts the last
	// known rate to keep the dimension consistent.
	var rate decimal.Decimal
	netSalesEur := total.NetSalesEur()
	if netSalesEur.IsPositive() {
		rate = total.NetSales().Div(netSalesEur)
	} else {
		last, ok := in.Resolver.LastKnown(total.Currency)
		if !ok || !last.IsPositive() {
			c.logger.Warn("no rate available for settlement rate fallback",
				zap.Uint("merchant_id", in.MerchantID),
				zap.String("currency", total.Currency),
			)
			c.metrics.RecordMissingRate(total.Currency)
			last = decimal.NewFromInt(1)
		}
		rate = decimal.NewFromInt(1).Div(last)
	}

	if !in.ExchangeRateMarkup.IsZero() {
		rate = rate.Mul(in.ExchangeRateMarkup)
	}

	precision, ok := ratePrecision[total.Currency]
	if !ok {
		precision = defaultRatePrecision
	}
	return total.WithExchangeRate(rate.Round(precision))
}
