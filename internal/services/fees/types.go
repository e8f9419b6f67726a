// Package fees computes the fee lines owed by a merchant for a settlement
// period: standard fees from the merchant's settings row, custom per-merchant
// or per-shop overrides, both gated by frequency rules.
package fees

import (
	"errors"

	"payclear/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrMerchantNotFound is the hard failure for an unknown merchant id.
	// Fees are never silently zero for a merchant that does not exist.
	ErrMerchantNotFound = errors.New("merchant not found for fee calculation")
	// ErrSettingsMissing is the hard failure for a merchant without a
	// settings row.
	ErrSettingsMissing = errors.New("merchant has no fee settings")
)

// Line is one computed fee.
type Line struct {
	FeeTypeID    uint
	Key          string
	Name         string
	Rate         string // "2.50%" for percentages, plain decimal for fixed
	Amount       decimal.Decimal
	Frequency    string
	IsPercentage bool
	// TransactionData is the audit snapshot of the inputs the amount was
	// computed from.
	TransactionData models.JSON
}

// rateString renders the human-readable rate for a configured amount.
func rateString(amount int64, isPercentage bool) string {
	d := decimal.NewFromInt(amount).Shift(-2)
	if isPercentage {
		return d.StringFixed(2) + "%"
	}
	return d.String()
}
