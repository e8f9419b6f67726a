package models

import (
	"time"

	"gorm.io/gorm"
)

// Fee frequency types. Unknown values never apply (fail closed).
const (
	FrequencyTransaction = "transaction"
	FrequencyDaily       = "daily"
	FrequencyWeekly      = "weekly"
	FrequencyMonthly     = "monthly"
	FrequencyYearly      = "yearly"
	FrequencyOneTime     = "one_time"
)

// Well-known fee type keys seeded at install time.
const (
	FeeKeyMDR                = "mdr_fee"
	FeeKeyTransaction        = "transaction_fee"
	FeeKeyDeclined           = "declined_fee"
	FeeKeyPayout             = "payout_fee"
	FeeKeyRefund             = "refund_fee"
	FeeKeyChargeback         = "chargeback_fee"
	FeeKeyMonthly            = "monthly_fee"
	FeeKeyVisaHighRisk       = "visa_high_risk_fee"
	FeeKeyMastercardHighRisk = "mastercard_high_risk_fee"
	FeeKeySetup              = "setup_fee"
)

// FeeType is reference data. Rows referenced by FeeHistory are never
// hard-deleted; soft delete only.
type FeeType struct {
	ID            uint   `gorm:"primarykey"`
	Key           string `gorm:"uniqueIndex;not null"`
	Name          string `gorm:"not null"`
	FrequencyType string `gorm:"not null;default:'transaction'"`
	IsPercentage  bool   `gorm:"default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// MerchantFee is a versioned per-merchant fee override. At most one row should
// be effective for a given (merchant, fee type) on any date; callers filter by
// effective_from <= d AND (effective_to >= d OR effective_to IS NULL).
type MerchantFee struct {
	ID            uint `gorm:"primarykey"`
	MerchantID    uint `gorm:"index;not null"`
	FeeTypeID     uint `gorm:"index;not null"`
	FeeType       FeeType
	Amount        int64 // cents, or basis points when the fee type is a percentage
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	Active        bool `gorm:"default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// ShopFee mirrors MerchantFee at shop granularity.
type ShopFee struct {
	ID            uint `gorm:"primarykey"`
	ShopID        uint `gorm:"index;not null"`
	FeeTypeID     uint `gorm:"index;not null"`
	FeeType       FeeType
	Amount        int64
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	Active        bool `gorm:"default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// FeeHistory is an append-only ledger: one row per fee application per
// settlement run. Rows are never updated or deleted; frequency gating
// (one_time fees) reads this table.
type FeeHistory struct {
	ID              uint `gorm:"primarykey"`
	MerchantID      uint `gorm:"index;not null"`
	FeeTypeID       uint `gorm:"index;not null"`
	BaseAmount      int64
	BaseCurrency    string `gorm:"size:3"`
	FeeAmountEur    int64
	ExchangeRate    string
	AppliedDate     time.Time `gorm:"index"`
	ReportReference string    `gorm:"index"`
	CreatedAt       time.Time
}
