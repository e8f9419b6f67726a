package repositories

import (
	"context"
	"errors"
	"fmt"

	"payclear/internal/models"

	"gorm.io/gorm"
)

// ErrReportNotFound is returned when no settlement report matches a lookup.
var ErrReportNotFound = errors.New("settlement report not found")

// ReportRepository persists generated settlement reports.
type ReportRepository interface {
	Create(ctx context.Context, tx *gorm.DB, report *models.SettlementReport) error
	GetByReference(ctx context.Context, reference string) (*models.SettlementReport, error)
	ListByMerchant(ctx context.Context, merchantID uint, period models.DateRange) ([]models.SettlementReport, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a repository over the application database.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, tx *gorm.DB, report *models.SettlementReport) error {
	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to create settlement report: %w", err)
	}
	return nil
}

func (r *reportRepository) GetByReference(ctx context.Context, reference string) (*models.SettlementReport, error) {
	var report models.SettlementReport
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to fetch report %s: %w", reference, err)
	}
	return &report, nil
}

func (r *reportRepository) ListByMerchant(ctx context.Context, merchantID uint, period models.DateRange) ([]models.SettlementReport, error) {
	var reports []models.SettlementReport
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Where("period_start >= ? AND period_end <= ?", period.Start, period.End).
		Order("period_start").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}
