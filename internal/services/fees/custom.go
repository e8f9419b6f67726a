package fees

import (
	"context"
	"fmt"
	"time"

	"payclear/internal/models"
	"payclear/internal/repositories"
	"payclear/internal/services/totals"

	"github.com/shopspring/decimal"
)

// CustomFeeHandler computes fee lines from per-merchant and per-shop override
// rows effective on the settlement date.
type CustomFeeHandler struct {
	feeRepo repositories.FeeRepository
}

// NewCustomFeeHandler creates a custom fee handler.
func NewCustomFeeHandler(feeRepo repositories.FeeRepository) *CustomFeeHandler {
	return &CustomFeeHandler{feeRepo: feeRepo}
}

// Calculate returns one line per active nonzero override. Zero-amount
// overrides yield no line. Shop overrides are included when shopID is set.
func (h *CustomFeeHandler) Calculate(ctx context.Context, merchantID uint, shopID *uint, date time.Time, total totals.TransactionTotal) ([]Line, error) {
	merchantFees, err := h.feeRepo.GetActiveMerchantFees(ctx, merchantID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom fees: %w", err)
	}

	var lines []Line
	for _, fee := range merchantFees {
		if line, ok := buildOverrideLine(fee.Amount, fee.FeeType, total); ok {
			lines = append(lines, line)
		}
	}

	if shopID != nil {
		shopFees, err := h.feeRepo.GetActiveShopFees(ctx, *shopID, date)
		if err != nil {
			return nil, fmt.Errorf("failed to load shop fees: %w", err)
		}
		for _, fee := range shopFees {
			if line, ok := buildOverrideLine(fee.Amount, fee.FeeType, total); ok {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

// overrideCount maps a fee type key to the transaction count a fixed override
// multiplies by. Keys with no per-unit meaning charge once.
func overrideCount(key string, total totals.TransactionTotal) int64 {
	switch key {
	case models.FeeKeyTransaction:
		return total.Sales.Count
	case models.FeeKeyDeclined:
		return total.Declined.Count
	case models.FeeKeyRefund:
		return total.Refunds.Count
	case models.FeeKeyChargeback:
		return total.Chargebacks.Total.Count
	case models.FeeKeyPayout:
		return total.Payouts.Total.Count
	}
	return 1
}

func buildOverrideLine(amount int64, feeType models.FeeType, total totals.TransactionTotal) (Line, bool) {
	if amount == 0 {
		return Line{}, false
	}

	var computed decimal.Decimal
	data := models.JSON{"currency": total.Currency, "override": true}
	if feeType.IsPercentage {
		base := total.Sales.AmountEur
		computed = base.Mul(decimal.NewFromInt(amount)).Shift(-4)
		data["base_amount_eur"] = base.String()
		data["percentage_bps"] = amount
	} else {
		count := overrideCount(feeType.Key, total)
		computed = decimal.NewFromInt(amount).Shift(-2).Mul(decimal.NewFromInt(count))
		data["unit_amount"] = decimal.NewFromInt(amount).Shift(-2).String()
		data["count"] = count
	}

	return Line{
		FeeTypeID:       feeType.ID,
		Key:             feeType.Key,
		Name:            feeType.Name,
		Rate:            rateString(amount, feeType.IsPercentage),
		Amount:          computed.Round(2),
		Frequency:       feeType.FrequencyType,
		IsPercentage:    feeType.IsPercentage,
		TransactionData: data,
	}, true
}
