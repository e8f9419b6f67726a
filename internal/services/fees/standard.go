package fees

import (
	"payclear/internal/models"
	"payclear/internal/services/totals"

	"github.com/shopspring/decimal"
)

// standardFeeRow is one row of the statically enumerated standard fee table.
// amount reads the configured value off the settings row (basis points for
// percentages, cents for fixed fees); count/base select the transaction data
// the fee applies to.
type standardFeeRow struct {
	key          string
	name         string
	frequency    string
	isPercentage bool
	// standing fees (subscription-style charges) are emitted whenever
	// configured, even at zero transaction volume.
	standing bool
	amount   func(*models.MerchantSetting) int64
	count    func(totals.TransactionTotal) int64
	base     func(totals.TransactionTotal) decimal.Decimal
}

var standardFeeTable = []standardFeeRow{
	{
		key: models.FeeKeyMDR, name: "MDR Fee",
		frequency: models.FrequencyTransaction, isPercentage: true,
		amount: func(s *models.MerchantSetting) int64 { return s.MDRPercentage },
		base:   func(t totals.TransactionTotal) decimal.Decimal { return t.Sales.AmountEur },
	},
	{
		key: models.FeeKeyTransaction, name: "Transaction Fee",
		frequency: models.FrequencyTransaction,
		amount:    func(s *models.MerchantSetting) int64 { return s.TransactionFee },
		count:     func(t totals.TransactionTotal) int64 { return t.Sales.Count },
	},
	{
		key: models.FeeKeyDeclined, name: "Declined Fee",
		frequency: models.FrequencyTransaction,
		amount:    func(s *models.MerchantSetting) int64 { return s.DeclinedFee },
		count:     func(t totals.TransactionTotal) int64 { return t.Declined.Count },
	},
	{
		key: models.FeeKeyRefund, name: "Refund Fee",
		frequency: models.FrequencyTransaction,
		amount:    func(s *models.MerchantSetting) int64 { return s.RefundFee },
		count:     func(t totals.TransactionTotal) int64 { return t.Refunds.Count },
	},
	{
		key: models.FeeKeyChargeback, name: "Chargeback Fee",
		frequency: models.FrequencyTransaction,
		amount:    func(s *models.MerchantSetting) int64 { return s.ChargebackFee },
		count:     func(t totals.TransactionTotal) int64 { return t.Chargebacks.Total.Count },
	},
	{
		key: models.FeeKeyPayout, name: "Payout Fee",
		frequency: models.FrequencyTransaction,
		amount:    func(s *models.MerchantSetting) int64 { return s.PayoutFee },
		count:     func(t totals.TransactionTotal) int64 { return t.Payouts.Total.Count },
	},
	{
		key: models.FeeKeyVisaHighRisk, name: "Visa High Risk Fee",
		frequency: models.FrequencyTransaction,
		amount:    func(s *models.MerchantSetting) int64 { return s.VisaHighRiskFee },
		count:     func(t totals.TransactionTotal) int64 { return t.Sales.Count },
	},
	{
		key: models.FeeKeyMastercardHighRisk, name: "Mastercard High Risk Fee",
		frequency: models.FrequencyTransaction,
		amount:    func(s *models.MerchantSetting) int64 { return s.MastercardHighRiskFee },
		count:     func(t totals.TransactionTotal) int64 { return t.Sales.Count },
	},
	{
		key: models.FeeKeyMonthly, name: "Monthly Fee",
		frequency: models.FrequencyMonthly, standing: true,
		amount: func(s *models.MerchantSetting) int64 { return s.MonthlyFee },
	},
	{
		key: models.FeeKeySetup, name: "Setup Fee",
		frequency: models.FrequencyOneTime, standing: true,
		amount: func(s *models.MerchantSetting) int64 {
			if s.SetupFeeCharged {
				return 0
			}
			return s.SetupFee
		},
	},
}

// StandardFeeHandler computes fee lines from the merchant's settings row.
type StandardFeeHandler struct{}

// NewStandardFeeHandler creates a standard fee handler.
func NewStandardFeeHandler() *StandardFeeHandler {
	return &StandardFeeHandler{}
}

// Calculate walks the standard fee table. Unconfigured fees are skipped
// entirely; per-unit fees are skipped when their computed amount is zero;
// standing charges are emitted whenever configured, even at zero volume.
func (h *StandardFeeHandler) Calculate(settings *models.MerchantSetting, total totals.TransactionTotal) []Line {
	var lines []Line
	for _, row := range standardFeeTable {
		configured := row.amount(settings)
		if configured == 0 {
			continue
		}

		var amount decimal.Decimal
		data := models.JSON{"currency": total.Currency}
		if row.isPercentage {
			base := row.base(total)
			amount = base.Mul(decimal.NewFromInt(configured)).Shift(-4)
			data["base_amount_eur"] = base.String()
			data["percentage_bps"] = configured
		} else {
			count := int64(1)
			if row.count != nil {
				count = row.count(total)
			}
			amount = decimal.NewFromInt(configured).Shift(-2).Mul(decimal.NewFromInt(count))
			data["unit_amount"] = decimal.NewFromInt(configured).Shift(-2).String()
			data["count"] = count
		}

		if amount.IsZero() && !row.standing {
			continue
		}

		lines = append(lines, Line{
			Key:             row.key,
			Name:            row.name,
			Rate:            rateString(configured, row.isPercentage),
			Amount:          amount.Round(2),
			Frequency:       row.frequency,
			IsPercentage:    row.isPercentage,
			TransactionData: data,
		})
	}
	return lines
}
