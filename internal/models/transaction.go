package models

import "time"

// Transaction types as reported by the processor.
const (
	TransactionTypeSale          = "SALE"
	TransactionTypeRefund        = "REFUND"
	TransactionTypePartialRefund = "PARTIAL_REFUND"
	TransactionTypeChargeback    = "CHARGEBACK"
	TransactionTypePayout        = "PAYOUT"
)

// Transaction statuses as reported by the processor.
const (
	TransactionStatusApproved   = "APPROVED"
	TransactionStatusDeclined   = "DECLINED"
	TransactionStatusProcessing = "PROCESSING"
)

// Card brands carrying scheme exchange rates.
const (
	BrandVisa       = "VISA"
	BrandMastercard = "MASTERCARD"
)

// Transaction is a raw processor transaction row. It lives in the processing
// database and is read-only from this application's point of view. Amount is
// in minor units of Currency.
type Transaction struct {
	ID                uint   `gorm:"primarykey"`
	TransactionID     string `gorm:"column:trx_id;uniqueIndex"`
	AccountID         uint   `gorm:"index"`
	Amount            int64
	Currency          string `gorm:"size:3"`
	TransactionType   string
	TransactionStatus string
	BinBrand          string    // card brand from the BIN, e.g. VISA
	AddedDate         time.Time `gorm:"index"`
}

// TableName matches the processing schema.
func (Transaction) TableName() string { return "transactions" }

// SchemeRate is one scheme exchange rate: EUR per unit of Currency for a given
// card brand on a given day. Also stored on the processing side.
type SchemeRate struct {
	ID       uint      `gorm:"primarykey"`
	Currency string    `gorm:"size:3;index:idx_scheme_rate,unique"`
	Brand    string    `gorm:"index:idx_scheme_rate,unique"`
	RateDate time.Time `gorm:"index:idx_scheme_rate,unique"`
	// Rate is stored as a decimal string to avoid float drift in persistence.
	Rate string `gorm:"not null"`
}

// TableName matches the processing schema.
func (SchemeRate) TableName() string { return "scheme_rates" }
