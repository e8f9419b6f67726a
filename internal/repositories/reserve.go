package repositories

import (
	"context"
	"fmt"
	"time"

	"payclear/internal/models"

	"gorm.io/gorm"
)

// ReserveRepository persists rolling reserve entries. The release sweep is an
// atomic conditional update: the status predicate itself prevents
// double-release, no row locks needed.
type ReserveRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.RollingReserveEntry) error
	// GetReleasable returns pending entries whose release date has passed.
	GetReleasable(ctx context.Context, merchantID uint, asOf time.Time) ([]models.RollingReserveEntry, error)
	// Release marks all due pending entries for the merchant as released and
	// returns the number of rows updated.
	Release(ctx context.Context, tx *gorm.DB, merchantID uint, asOf time.Time) (int64, error)
	GetByMerchant(ctx context.Context, merchantID uint, status string) ([]models.RollingReserveEntry, error)
	// PendingTotalEur sums the EUR amounts still held for the merchant.
	PendingTotalEur(ctx context.Context, merchantID uint) (int64, error)
}

type reserveRepository struct {
	db *gorm.DB
}

// NewReserveRepository creates a repository over the application database.
func NewReserveRepository(db *gorm.DB) ReserveRepository {
	return &reserveRepository{db: db}
}

func (r *reserveRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.RollingReserveEntry) error {
	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create reserve entry: %w", err)
	}
	return nil
}

func (r *reserveRepository) GetReleasable(ctx context.Context, merchantID uint, asOf time.Time) ([]models.RollingReserveEntry, error) {
	var entries []models.RollingReserveEntry
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND status = ? AND release_due_date <= ?",
			merchantID, models.ReserveStatusPending, asOf).
		Order("release_due_date").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch releasable reserves: %w", err)
	}
	return entries, nil
}

func (r *reserveRepository) Release(ctx context.Context, tx *gorm.DB, merchantID uint, asOf time.Time) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	now := tx.NowFunc()
	res := tx.WithContext(ctx).
		Model(&models.RollingReserveEntry{}).
		Where("merchant_id = ? AND status = ? AND release_due_date <= ?",
			merchantID, models.ReserveStatusPending, asOf).
		Updates(map[string]interface{}{
			"status":      models.ReserveStatusReleased,
			"released_at": now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to release reserves: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *reserveRepository) GetByMerchant(ctx context.Context, merchantID uint, status string) ([]models.RollingReserveEntry, error) {
	var entries []models.RollingReserveEntry
	q := r.db.WithContext(ctx).Where("merchant_id = ?", merchantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch reserves: %w", err)
	}
	return entries, nil
}

func (r *reserveRepository) PendingTotalEur(ctx context.Context, merchantID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.RollingReserveEntry{}).
		Where("merchant_id = ? AND status = ?", merchantID, models.ReserveStatusPending).
		Select("COALESCE(SUM(reserve_amount_eur), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum pending reserves: %w", err)
	}
	return total, nil
}
