package repositories

import (
	"context"
	"errors"
	"fmt"

	"payclear/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrMerchantNotFound is returned when a merchant id resolves to nothing.
	ErrMerchantNotFound = errors.New("merchant not found")
	// ErrSettingsNotFound is returned when a merchant has no settings row.
	ErrSettingsNotFound = errors.New("merchant settings not found")
	// ErrSettingsExist is returned when creating a second settings row for the
	// same merchant.
	ErrSettingsExist = errors.New("merchant settings already exist")
)

const pqUniqueViolation = "23505"

// MerchantRepository covers merchants, shops and their singleton settings.
type MerchantRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Merchant, error)
	GetByAccountID(ctx context.Context, accountID uint) (*models.Merchant, error)
	Create(ctx context.Context, merchant *models.Merchant) error
	Update(ctx context.Context, merchant *models.Merchant) error
	List(ctx context.Context) ([]models.Merchant, error)

	GetSettings(ctx context.Context, merchantID uint) (*models.MerchantSetting, error)
	// CreateSettings fails with ErrSettingsExist when the merchant already has
	// a settings row.
	CreateSettings(ctx context.Context, settings *models.MerchantSetting) error
	SaveSettings(ctx context.Context, tx *gorm.DB, settings *models.MerchantSetting) error

	GetShopSettings(ctx context.Context, shopID uint) (*models.ShopSetting, error)
	CreateShopSettings(ctx context.Context, settings *models.ShopSetting) error
}

type merchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository creates a repository over the application database.
func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) GetByID(ctx context.Context, id uint) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to fetch merchant %d: %w", id, err)
	}
	return &merchant, nil
}

func (r *merchantRepository) GetByAccountID(ctx context.Context, accountID uint) (*models.Merchant, error) {
	var merchant models.Merchant
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&merchant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to fetch merchant by account %d: %w", accountID, err)
	}
	return &merchant, nil
}

func (r *merchantRepository) Create(ctx context.Context, merchant *models.Merchant) error {
	if err := r.db.WithContext(ctx).Create(merchant).Error; err != nil {
		return fmt.Errorf("failed to create merchant: %w", err)
	}
	return nil
}

func (r *merchantRepository) Update(ctx context.Context, merchant *models.Merchant) error {
	if err := r.db.WithContext(ctx).Save(merchant).Error; err != nil {
		return fmt.Errorf("failed to update merchant: %w", err)
	}
	return nil
}

func (r *merchantRepository) List(ctx context.Context) ([]models.Merchant, error) {
	var merchants []models.Merchant
	if err := r.db.WithContext(ctx).Order("id").Find(&merchants).Error; err != nil {
		return nil, fmt.Errorf("failed to list merchants: %w", err)
	}
	return merchants, nil
}

func (r *merchantRepository) GetSettings(ctx context.Context, merchantID uint) (*models.MerchantSetting, error) {
	var settings models.MerchantSetting
	err := r.db.WithContext(ctx).Where("merchant_id = ?", merchantID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to fetch settings for merchant %d: %w", merchantID, err)
	}
	return &settings, nil
}

func (r *merchantRepository) CreateSettings(ctx context.Context, settings *models.MerchantSetting) error {
	if err := r.db.WithContext(ctx).Create(settings).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrSettingsExist
		}
		return fmt.Errorf("failed to create merchant settings: %w", err)
	}
	return nil
}

func (r *merchantRepository) SaveSettings(ctx context.Context, tx *gorm.DB, settings *models.MerchantSetting) error {
	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("failed to save merchant settings: %w", err)
	}
	return nil
}

func (r *merchantRepository) GetShopSettings(ctx context.Context, shopID uint) (*models.ShopSetting, error) {
	var settings models.ShopSetting
	err := r.db.WithContext(ctx).Where("shop_id = ?", shopID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to fetch settings for shop %d: %w", shopID, err)
	}
	return &settings, nil
}

func (r *merchantRepository) CreateShopSettings(ctx context.Context, settings *models.ShopSetting) error {
	if err := r.db.WithContext(ctx).Create(settings).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrSettingsExist
		}
		return fmt.Errorf("failed to create shop settings: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Connections opened over lib/pq surface the raw postgres error code.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqUniqueViolation
	}
	return false
}
