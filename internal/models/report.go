package models

import (
	"time"

	"gorm.io/gorm"
)

// Settlement report statuses.
const (
	ReportStatusGenerated = "generated"
	ReportStatusFailed    = "failed"
)

// SettlementReport persists the outcome of one settlement run for one
// merchant/currency/period. Totals holds the renderer-facing snapshot (decimal
// major units) so downstream XML/CSV/XLSX generation never recomputes.
type SettlementReport struct {
	ID          uint   `gorm:"primarykey"`
	MerchantID  uint   `gorm:"index;not null"`
	Currency    string `gorm:"size:3;not null"`
	PeriodStart time.Time
	PeriodEnd   time.Time
	Reference   string `gorm:"uniqueIndex;not null"`
	Status      string `gorm:"default:'generated'"`
	Totals      JSON   `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}
