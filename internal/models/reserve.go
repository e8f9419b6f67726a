package models

import (
	"time"

	"gorm.io/gorm"
)

// Rolling reserve entry statuses.
const (
	ReserveStatusPending  = "pending"
	ReserveStatusReleased = "released"
)

// RollingReserveEntry is one holdback event created at settlement time.
// OriginalAmount, OriginalCurrency and ReserveAmountEur are fixed at creation
// and never recalculated; corrections require a compensating entry. Released
// entries are immutable and only ever soft-deleted, to preserve the audit
// trail.
type RollingReserveEntry struct {
	ID               uint   `gorm:"primarykey"`
	MerchantID       uint   `gorm:"index;not null"`
	OriginalAmount   int64  // minor units
	OriginalCurrency string `gorm:"size:3;not null"`
	ReserveAmountEur int64  // minor units
	ExchangeRate     string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	ReleaseDueDate   time.Time `gorm:"index"`
	ReleasedAt       *time.Time
	Status           string `gorm:"default:'pending';index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}
