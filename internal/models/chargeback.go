package models

import "time"

// Chargeback lifecycle statuses. InitialStatus never changes after creation;
// CurrentStatus only moves forward PROCESSING -> APPROVED/DECLINED.
const (
	ChargebackStatusProcessing = "PROCESSING"
	ChargebackStatusApproved   = "APPROVED"
	ChargebackStatusDeclined   = "DECLINED"
)

// ChargebackTracking records the lifecycle of one disputed transaction.
// TransactionID is the business key; once Settled the row is closed and
// excluded from pending-settlement queries.
type ChargebackTracking struct {
	ID                uint   `gorm:"primarykey"`
	MerchantID        uint   `gorm:"index;not null"`
	TransactionID     string `gorm:"uniqueIndex;not null"`
	Amount            int64  // minor units in the original currency
	Currency          string `gorm:"size:3;not null"`
	AmountEur         int64
	ExchangeRate      string
	InitialStatus     string `gorm:"not null"`
	CurrentStatus     string `gorm:"not null"`
	ProcessingDate    time.Time
	StatusChangedDate *time.Time
	Settled           bool `gorm:"default:false;index"`
	SettledDate       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
