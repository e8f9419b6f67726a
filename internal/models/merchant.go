package models

import (
	"time"

	"gorm.io/gorm"
)

// Merchant is the settlement-facing merchant record. Transaction history lives
// in the processing database and is joined by AccountID.
type Merchant struct {
	ID         uint   `gorm:"primarykey"`
	AccountID  uint   `gorm:"uniqueIndex;not null"` // account id on the processing side
	Name       string `gorm:"not null"`
	Email      string `gorm:"uniqueIndex;not null"`
	Phone      string
	Country    string `gorm:"size:2"`
	MCC        string // merchant category code
	IBAN       string
	Status     string `gorm:"default:'active'"`
	IsHighRisk bool   `gorm:"default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

// Shop is a sub-entity of a merchant; shops can carry their own settings and
// fee overrides which take precedence over the merchant-level ones.
type Shop struct {
	ID         uint `gorm:"primarykey"`
	MerchantID uint `gorm:"index;not null"`
	Name       string
	URL        string
	Status     string `gorm:"default:'active'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

// MerchantSetting is the singleton settings row for a merchant. All percentages
// are basis points (250 = 2.50%), all fixed fees are minor units (cents).
// Exactly one row may exist per merchant; creation fails once one exists.
type MerchantSetting struct {
	ID                       uint `gorm:"primarykey"`
	MerchantID               uint `gorm:"uniqueIndex;not null"`
	RollingReservePercentage int64
	HoldingPeriodDays        int `gorm:"default:180"`
	MDRPercentage            int64
	TransactionFee           int64
	DeclinedFee              int64
	PayoutFee                int64
	RefundFee                int64
	ChargebackFee            int64
	MonthlyFee               int64
	VisaHighRiskFee          int64
	MastercardHighRiskFee    int64
	SetupFee                 int64
	SetupFeeCharged          bool `gorm:"default:false"`
	// ExchangeRateMarkup is a decimal multiplier applied to the settlement
	// exchange rate for non-EUR currencies, e.g. "1.01".
	ExchangeRateMarkup string `gorm:"default:'1.01'"`
	FxRateMarkup       int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

// ShopSetting mirrors MerchantSetting at shop granularity.
type ShopSetting struct {
	ID                       uint `gorm:"primarykey"`
	ShopID                   uint `gorm:"uniqueIndex;not null"`
	RollingReservePercentage int64
	HoldingPeriodDays        int `gorm:"default:180"`
	MDRPercentage            int64
	TransactionFee           int64
	DeclinedFee              int64
	PayoutFee                int64
	RefundFee                int64
	ChargebackFee            int64
	MonthlyFee               int64
	VisaHighRiskFee          int64
	MastercardHighRiskFee    int64
	SetupFee                 int64
	SetupFeeCharged          bool   `gorm:"default:false"`
	ExchangeRateMarkup       string `gorm:"default:'1.01'"`
	FxRateMarkup             int64
	CreatedAt                time.Time
	UpdatedAt                time.Time
	DeletedAt                gorm.DeletedAt `gorm:"index"`
}
