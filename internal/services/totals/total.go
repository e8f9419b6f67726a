// Package totals folds raw processor transactions into immutable per-currency
// settlement aggregates.
package totals

import (
	"github.com/shopspring/decimal"

	"payclear/internal/models"
)

// Bucket is one aggregate line: a count plus amounts in the original currency
// and in EUR, both in decimal major units.
type Bucket struct {
	Count     int64
	Amount    decimal.Decimal
	AmountEur decimal.Decimal
}

func (b Bucket) add(amount, eur decimal.Decimal) Bucket {
	b.Count++
	b.Amount = b.Amount.Add(amount)
	b.AmountEur = b.AmountEur.Add(eur)
	return b
}

// OutcomeBuckets splits an aggregate by processor outcome. Total always
// reflects every observed transaction regardless of status.
type OutcomeBuckets struct {
	Total      Bucket
	Processing Bucket
	Approved   Bucket
	Declined   Bucket
}

func (o OutcomeBuckets) add(status string, amount, eur decimal.Decimal) OutcomeBuckets {
	o.Total = o.Total.add(amount, eur)
	switch status {
	case models.TransactionStatusProcessing:
		o.Processing = o.Processing.add(amount, eur)
	case models.TransactionStatusApproved:
		o.Approved = o.Approved.add(amount, eur)
	case models.TransactionStatusDeclined:
		o.Declined = o.Declined.add(amount, eur)
	}
	return o
}

// TransactionTotal is the per-currency settlement aggregate. It is an
// immutable value: every With method takes a value receiver, mutates the
// copy and returns it, so an instance observed mid-fold is never partially
// updated through aliasing.
type TransactionTotal struct {
	Currency string

	Sales    Bucket
	Declined Bucket
	Refunds  Bucket

	Chargebacks OutcomeBuckets
	Payouts     OutcomeBuckets

	// ExchangeRate is the final settlement rate for the period, post markup.
	ExchangeRate decimal.Decimal
	// FxRate is the merchant's FX markup in basis points.
	FxRate int64
}

// NewTransactionTotal returns a zero-valued total for a currency.
func NewTransactionTotal(currency string) TransactionTotal {
	return TransactionTotal{Currency: currency, ExchangeRate: decimal.NewFromInt(1)}
}

// WithSale adds one approved sale.
func (t TransactionTotal) WithSale(amount, eur decimal.Decimal) TransactionTotal {
	t.Sales = t.Sales.add(amount, eur)
	return t
}

// WithDeclinedSale adds one declined sale.
func (t TransactionTotal) WithDeclinedSale(amount, eur decimal.Decimal) TransactionTotal {
	t.Declined = t.Declined.add(amount, eur)
	return t
}

// WithRefund adds one approved refund.
func (t TransactionTotal) WithRefund(amount, eur decimal.Decimal) TransactionTotal {
	t.Refunds = t.Refunds.add(amount, eur)
	return t
}

// WithChargeback adds one chargeback, bucketed by its current status.
func (t TransactionTotal) WithChargeback(status string, amount, eur decimal.Decimal) TransactionTotal {
	t.Chargebacks = t.Chargebacks.add(status, amount, eur)
	return t
}

// WithPayout adds one payout, bucketed by its current status.
func (t TransactionTotal) WithPayout(status string, amount, eur decimal.Decimal) TransactionTotal {
	t.Payouts = t.Payouts.add(status, amount, eur)
	return t
}

// WithExchangeRate pins the final settlement exchange rate.
func (t TransactionTotal) WithExchangeRate(rate decimal.Decimal) TransactionTotal {
	t.ExchangeRate = rate
	return t
}

// WithFxRate attaches the merchant's FX markup basis points.
func (t TransactionTotal) WithFxRate(bps int64) TransactionTotal {
	t.FxRate = bps
	return t
}

// NetSales returns sales minus refunds in the original currency.
func (t TransactionTotal) NetSales() decimal.Decimal {
	return t.Sales.Amount.Sub(t.Refunds.Amount)
}

// NetSalesEur returns sales minus refunds in EUR.
func (t TransactionTotal) NetSalesEur() decimal.Decimal {
	return t.Sales.AmountEur.Sub(t.Refunds.AmountEur)
}
