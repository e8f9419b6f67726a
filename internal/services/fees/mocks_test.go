package fees

import (
	"context"
	"time"

	"payclear/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type mockFeeRepo struct {
	mock.Mock
}

func (m *mockFeeRepo) GetFeeTypes(ctx context.Context) ([]models.FeeType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FeeType), args.Error(1)
}

func (m *mockFeeRepo) GetFeeTypeByKey(ctx context.Context, key string) (*models.FeeType, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeeType), args.Error(1)
}

func (m *mockFeeRepo) GetActiveMerchantFees(ctx context.Context, merchantID uint, date time.Time) ([]models.MerchantFee, error) {
	args := m.Called(ctx, merchantID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MerchantFee), args.Error(1)
}

func (m *mockFeeRepo) GetActiveShopFees(ctx context.Context, shopID uint, date time.Time) ([]models.ShopFee, error) {
	args := m.Called(ctx, shopID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ShopFee), args.Error(1)
}

func (m *mockFeeRepo) CreateMerchantFee(ctx context.Context, fee *models.MerchantFee) error {
	args := m.Called(ctx, fee)
	return args.Error(0)
}

func (m *mockFeeRepo) RecordFeeHistory(ctx context.Context, tx *gorm.DB, history *models.FeeHistory) error {
	args := m.Called(ctx, tx, history)
	return args.Error(0)
}

func (m *mockFeeRepo) HasAnyHistory(ctx context.Context, merchantID, feeTypeID uint) (bool, error) {
	args := m.Called(ctx, merchantID, feeTypeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFeeRepo) GetHistory(ctx context.Context, merchantID uint, period models.DateRange) ([]models.FeeHistory, error) {
	args := m.Called(ctx, merchantID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FeeHistory), args.Error(1)
}

type mockMerchantRepo struct {
	mock.Mock
}

func (m *mockMerchantRepo) GetByID(ctx context.Context, id uint) (*models.Merchant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Merchant), args.Error(1)
}

func (m *mockMerchantRepo) GetByAccountID(ctx context.Context, accountID uint) (*models.Merchant, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Merchant), args.Error(1)
}

func (m *mockMerchantRepo) Create(ctx context.Context, merchant *models.Merchant) error {
	args := m.Called(ctx, merchant)
	return args.Error(0)
}

func (m *mockMerchantRepo) Update(ctx context.Context, merchant *models.Merchant) error {
	args := m.Called(ctx, merchant)
	return args.Error(0)
}

func (m *mockMerchantRepo) List(ctx context.Context) ([]models.Merchant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Merchant), args.Error(1)
}

func (m *mockMerchantRepo) GetSettings(ctx context.Context, merchantID uint) (*models.MerchantSetting, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MerchantSetting), args.Error(1)
}

func (m *mockMerchantRepo) CreateSettings(ctx context.Context, settings *models.MerchantSetting) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *mockMerchantRepo) SaveSettings(ctx context.Context, tx *gorm.DB, settings *models.MerchantSetting) error {
	args := m.Called(ctx, tx, settings)
	return args.Error(0)
}

func (m *mockMerchantRepo) GetShopSettings(ctx context.Context, shopID uint) (*models.ShopSetting, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShopSetting), args.Error(1)
}

func (m *mockMerchantRepo) CreateShopSettings(ctx context.Context, settings *models.ShopSetting) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}
