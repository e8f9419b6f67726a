package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payclear/internal/models"

	"gorm.io/gorm"
)

// ErrFeeTypeNotFound is returned when a fee type key is not seeded.
var ErrFeeTypeNotFound = errors.New("fee type not found")

// FeeRepository covers fee reference data, per-merchant/shop overrides and the
// append-only fee history ledger. FeeHistory rows are never updated or
// deleted; there are deliberately no methods for either.
type FeeRepository interface {
	GetFeeTypes(ctx context.Context) ([]models.FeeType, error)
	GetFeeTypeByKey(ctx context.Context, key string) (*models.FeeType, error)
	// GetActiveMerchantFees returns the merchant overrides effective on the
	// given date.
	GetActiveMerchantFees(ctx context.Context, merchantID uint, date time.Time) ([]models.MerchantFee, error)
	// GetActiveShopFees returns the shop overrides effective on the given date.
	GetActiveShopFees(ctx context.Context, shopID uint, date time.Time) ([]models.ShopFee, error)
	CreateMerchantFee(ctx context.Context, fee *models.MerchantFee) error
	RecordFeeHistory(ctx context.Context, tx *gorm.DB, history *models.FeeHistory) error
	// HasAnyHistory reports whether a fee type was ever applied to the
	// merchant. Used to gate one_time fees.
	HasAnyHistory(ctx context.Context, merchantID, feeTypeID uint) (bool, error)
	GetHistory(ctx context.Context, merchantID uint, period models.DateRange) ([]models.FeeHistory, error)
}

type feeRepository struct {
	db *gorm.DB
}

// NewFeeRepository creates a repository over the application database.
func NewFeeRepository(db *gorm.DB) FeeRepository {
	return &feeRepository{db: db}
}

func (r *feeRepository) GetFeeTypes(ctx context.Context) ([]models.FeeType, error) {
	var types []models.FeeType
	if err := r.db.WithContext(ctx).Find(&types).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch fee types: %w", err)
	}
	return types, nil
}

func (r *feeRepository) GetFeeTypeByKey(ctx context.Context, key string) (*models.FeeType, error) {
	var feeType models.FeeType
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&feeType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeeTypeNotFound
		}
		return nil, fmt.Errorf("failed to fetch fee type %q: %w", key, err)
	}
	return &feeType, nil
}

func (r *feeRepository) GetActiveMerchantFees(ctx context.Context, merchantID uint, date time.Time) ([]models.MerchantFee, error) {
	var fees []models.MerchantFee
	err := r.db.WithContext(ctx).
		Preload("FeeType").
		Where("merchant_id = ? AND active = ?", merchantID, true).
		Where("effective_from <= ? AND (effective_to >= ? OR effective_to IS NULL)", date, date).
		Find(&fees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch merchant fees: %w", err)
	}
	return fees, nil
}

func (r *feeRepository) GetActiveShopFees(ctx context.Context, shopID uint, date time.Time) ([]models.ShopFee, error) {
	var fees []models.ShopFee
	err := r.db.WithContext(ctx).
		Preload("FeeType").
		Where("shop_id = ? AND active = ?", shopID, true).
		Where("effective_from <= ? AND (effective_to >= ? OR effective_to IS NULL)", date, date).
		Find(&fees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shop fees: %w", err)
	}
	return fees, nil
}

func (r *feeRepository) CreateMerchantFee(ctx context.Context, fee *models.MerchantFee) error {
	if err := r.db.WithContext(ctx).Create(fee).Error; err != nil {
		return fmt.Errorf("failed to create merchant fee: %w", err)
	}
	return nil
}

func (r *feeRepository) RecordFeeHistory(ctx context.Context, tx *gorm.DB, history *models.FeeHistory) error {
	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).Create(history).Error; err != nil {
		return fmt.Errorf("failed to record fee history: %w", err)
	}
	return nil
}

func (r *feeRepository) HasAnyHistory(ctx context.Context, merchantID, feeTypeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FeeHistory{}).
		Where("merchant_id = ? AND fee_type_id = ?", merchantID, feeTypeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check fee history: %w", err)
	}
	return count > 0, nil
}

func (r *feeRepository) GetHistory(ctx context.Context, merchantID uint, period models.DateRange) ([]models.FeeHistory, error) {
	var rows []models.FeeHistory
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND applied_date BETWEEN ? AND ?", merchantID, period.Start, period.End).
		Order("applied_date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fee history: %w", err)
	}
	return rows, nil
}
