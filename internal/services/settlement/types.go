package settlement

import (
	"payclear/internal/models"
	"payclear/internal/services/fees"
	"payclear/internal/services/reserve"
	"payclear/internal/services/totals"
)

// FeeLine is the renderer-facing projection of one applied fee.
type FeeLine struct {
	Name            string      `json:"name"`
	Key             string      `json:"key"`
	Rate            string      `json:"rate"`
	Amount          float64     `json:"amount"`
	Frequency       string      `json:"frequency"`
	IsPercentage    bool        `json:"is_percentage"`
	TransactionData models.JSON `json:"transaction_data"`
}

// Report is the settlement output for one merchant/currency/period. All
// amounts are decimal major units; report renderers (XML/CSV/XLSX/email)
// consume these keys as-is and never recompute.
type Report struct {
	MerchantID      uint   `json:"merchant_id"`
	Currency        string `json:"currency"`
	PeriodStart     string `json:"period_start"`
	PeriodEnd       string `json:"period_end"`
	ReportReference string `json:"report_reference"`

	TotalSalesAmount      float64 `json:"total_sales_amount"`
	TotalSalesAmountEur   float64 `json:"total_sales_amount_eur"`
	TransactionSalesCount int64   `json:"transaction_sales_count"`

	TotalDeclinedAmount      float64 `json:"total_declined_amount"`
	TotalDeclinedAmountEur   float64 `json:"total_declined_amount_eur"`
	TransactionDeclinedCount int64   `json:"transaction_declined_count"`

	TotalRefundAmount      float64 `json:"total_refund_amount"`
	TotalRefundAmountEur   float64 `json:"total_refund_amount_eur"`
	TransactionRefundCount int64   `json:"transaction_refund_count"`

	TotalChargebackCount     int64   `json:"total_chargeback_count"`
	TotalChargebackAmount    float64 `json:"total_chargeback_amount"`
	TotalChargebackAmountEur float64 `json:"total_chargeback_amount_eur"`

	TotalPayoutCount     int64   `json:"total_payout_count"`
	TotalPayoutAmount    float64 `json:"total_payout_amount"`
	TotalPayoutAmountEur float64 `json:"total_payout_amount_eur"`

	Fees []FeeLine `json:"fees"`

	RollingReserve     float64 `json:"rolling_reserve"`
	ReleaseableReserve float64 `json:"releaseable_reserve"`

	ExchangeRate float64 `json:"exchange_rate"`
	// FxRate is the merchant's FX markup as a fraction: basis points
	// divided by 10000, so 150 bps renders as 0.015.
	FxRate float64 `json:"fx_rate"`
}

func buildReport(merchantID uint, period models.DateRange, reference string, total totals.TransactionTotal, feeLines []fees.Line, reserves *reserve.Result) Report {
	report := Report{
		MerchantID:      merchantID,
		Currency:        total.Currency,
		PeriodStart:     period.Start.Format("2006-01-02"),
		PeriodEnd:       period.End.Format("2006-01-02"),
		ReportReference: reference,

		TotalSalesAmount:      toFloat(total.Sales.Amount),
		TotalSalesAmountEur:   toFloat(total.Sales.AmountEur),
		TransactionSalesCount: total.Sales.Count,

		TotalDeclinedAmount:      toFloat(total.Declined.Amount),
		TotalDeclinedAmountEur:   toFloat(total.Declined.AmountEur),
		TransactionDeclinedCount: total.Declined.Count,

		TotalRefundAmount:      toFloat(total.Refunds.Amount),
		TotalRefundAmountEur:   toFloat(total.Refunds.AmountEur),
		TransactionRefundCount: total.Refunds.Count,

		TotalChargebackCount:     total.Chargebacks.Total.Count,
		TotalChargebackAmount:    toFloat(total.Chargebacks.Total.Amount),
		TotalChargebackAmountEur: toFloat(total.Chargebacks.Total.AmountEur),

		TotalPayoutCount:     total.Payouts.Total.Count,
		TotalPayoutAmount:    toFloat(total.Payouts.Total.Amount),
		TotalPayoutAmountEur: toFloat(total.Payouts.Total.AmountEur),

		ExchangeRate: toFloat(total.ExchangeRate),
		FxRate:       float64(total.FxRate) / 10000,
	}

	for _, line := range feeLines {
		report.Fees = append(report.Fees, FeeLine{
			Name:            line.Name,
			Key:             line.Key,
			Rate:            line.Rate,
			Amount:          toFloat(line.Amount),
			Frequency:       line.Frequency,
			IsPercentage:    line.IsPercentage,
			TransactionData: line.TransactionData,
		})
	}

	if reserves != nil {
		if reserves.NewEntry != nil {
			report.RollingReserve = float64(reserves.NewEntry.ReserveAmountEur) / 100
		}
		report.ReleaseableReserve = toFloat(reserves.ReleasedTotalEur())
	}
	return report
}
