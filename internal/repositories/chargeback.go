package repositories

import (
	"context"
	"errors"
	"fmt"

	"payclear/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrChargebackNotFound is returned when no unsettled row matches a lookup.
var ErrChargebackNotFound = errors.New("chargeback not found")

// ChargebackRepository persists chargeback lifecycle rows. Status updates and
// settlement marking take row locks so concurrent settlement runs cannot
// double-process the same transaction.
type ChargebackRepository interface {
	Create(ctx context.Context, tracking *models.ChargebackTracking) error
	// FindUnsettledForUpdate fetches the unsettled row for a transaction id
	// with a row lock. Returns ErrChargebackNotFound when no such row exists.
	FindUnsettledForUpdate(ctx context.Context, tx *gorm.DB, transactionID string) (*models.ChargebackTracking, error)
	Save(ctx context.Context, tx *gorm.DB, tracking *models.ChargebackTracking) error
	// MarkSettled closes all unsettled rows matching the ids, forcing the
	// given terminal status. Returns the number of rows updated.
	MarkSettled(ctx context.Context, tx *gorm.DB, transactionIDs []string, status string) (int64, error)
	// GetPendingSettlements returns unsettled rows for the merchant that have
	// never had a status change.
	GetPendingSettlements(ctx context.Context, merchantID uint) ([]models.ChargebackTracking, error)
	Exists(ctx context.Context, transactionID string) (bool, error)
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type chargebackRepository struct {
	db *gorm.DB
}

// NewChargebackRepository creates a repository over the application database.
func NewChargebackRepository(db *gorm.DB) ChargebackRepository {
	return &chargebackRepository{db: db}
}

func (r *chargebackRepository) Create(ctx context.Context, tracking *models.ChargebackTracking) error {
	if err := r.db.WithContext(ctx).Create(tracking).Error; err != nil {
		return fmt.Errorf("failed to create chargeback tracking: %w", err)
	}
	return nil
}

func (r *chargebackRepository) FindUnsettledForUpdate(ctx context.Context, tx *gorm.DB, transactionID string) (*models.ChargebackTracking, error) {
	if tx == nil {
		tx = r.db
	}
	var tracking models.ChargebackTracking
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("transaction_id = ? AND settled = ?", transactionID, false).
		First(&tracking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChargebackNotFound
		}
		return nil, fmt.Errorf("failed to lock chargeback row: %w", err)
	}
	return &tracking, nil
}

func (r *chargebackRepository) Save(ctx context.Context, tx *gorm.DB, tracking *models.ChargebackTracking) error {
	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).Save(tracking).Error; err != nil {
		return fmt.Errorf("failed to save chargeback tracking: %w", err)
	}
	return nil
}

func (r *chargebackRepository) MarkSettled(ctx context.Context, tx *gorm.DB, transactionIDs []string, status string) (int64, error) {
	if len(transactionIDs) == 0 {
		return 0, nil
	}
	if tx == nil {
		tx = r.db
	}
	now := tx.NowFunc()
	res := tx.WithContext(ctx).
		Model(&models.ChargebackTracking{}).
		Where("transaction_id IN ? AND settled = ?", transactionIDs, false).
		Updates(map[string]interface{}{
			"settled":        true,
			"settled_date":   now,
			"current_status": status,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark chargebacks settled: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *chargebackRepository) GetPendingSettlements(ctx context.Context, merchantID uint) ([]models.ChargebackTracking, error) {
	var rows []models.ChargebackTracking
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND settled = ? AND status_changed_date IS NULL", merchantID, false).
		Order("processing_date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending settlements: %w", err)
	}
	return rows, nil
}

func (r *chargebackRepository) Exists(ctx context.Context, transactionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ChargebackTracking{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check chargeback existence: %w", err)
	}
	return count > 0, nil
}

func (r *chargebackRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
