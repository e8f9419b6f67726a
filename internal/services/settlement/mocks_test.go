package settlement

import (
	"context"
	"database/sql"
	"time"

	"payclear/internal/models"
	"payclear/internal/services/chargeback"
	"payclear/internal/services/notification"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// mockDB runs transaction callbacks against a nil tx; everything the
// callbacks touch is mocked and ignores the tx argument.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	args := m.Called(mock.Anything)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fc(nil)
}

type mockTransactionRepo struct {
	mock.Mock
}

func (m *mockTransactionRepo) GetMerchantTransactions(ctx context.Context, accountID uint, period models.DateRange, currency string) ([]models.Transaction, error) {
	args := m.Called(ctx, accountID, period, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) GetSchemeRates(ctx context.Context, period models.DateRange, currencies []string) ([]models.SchemeRate, error) {
	args := m.Called(ctx, period, currencies)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SchemeRate), args.Error(1)
}

func (m *mockTransactionRepo) GetCurrencies(ctx context.Context, accountID uint, period models.DateRange) ([]string, error) {
	args := m.Called(ctx, accountID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
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
	return m.Called(ctx, merchant).Error(0)
}

func (m *mockMerchantRepo) Update(ctx context.Context, merchant *models.Merchant) error {
	return m.Called(ctx, merchant).Error(0)
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
	return m.Called(ctx, settings).Error(0)
}

func (m *mockMerchantRepo) SaveSettings(ctx context.Context, tx *gorm.DB, settings *models.MerchantSetting) error {
	return m.Called(ctx, tx, settings).Error(0)
}

func (m *mockMerchantRepo) GetShopSettings(ctx context.Context, shopID uint) (*models.ShopSetting, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShopSetting), args.Error(1)
}

func (m *mockMerchantRepo) CreateShopSettings(ctx context.Context, settings *models.ShopSetting) error {
	return m.Called(ctx, settings).Error(0)
}

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
	return m.Called(ctx, fee).Error(0)
}

func (m *mockFeeRepo) RecordFeeHistory(ctx context.Context, tx *gorm.DB, history *models.FeeHistory) error {
	return m.Called(ctx, tx, history).Error(0)
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

type mockReserveRepo struct {
	mock.Mock
}

func (m *mockReserveRepo) Create(ctx context.Context, tx *gorm.DB, entry *models.RollingReserveEntry) error {
	return m.Called(ctx, tx, entry).Error(0)
}

func (m *mockReserveRepo) GetReleasable(ctx context.Context, merchantID uint, asOf time.Time) ([]models.RollingReserveEntry, error) {
	args := m.Called(ctx, merchantID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RollingReserveEntry), args.Error(1)
}

func (m *mockReserveRepo) Release(ctx context.Context, tx *gorm.DB, merchantID uint, asOf time.Time) (int64, error) {
	args := m.Called(ctx, tx, merchantID, asOf)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReserveRepo) GetByMerchant(ctx context.Context, merchantID uint, status string) ([]models.RollingReserveEntry, error) {
	args := m.Called(ctx, merchantID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RollingReserveEntry), args.Error(1)
}

func (m *mockReserveRepo) PendingTotalEur(ctx context.Context, merchantID uint) (int64, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).(int64), args.Error(1)
}

type mockReportRepo struct {
	mock.Mock
}

func (m *mockReportRepo) Create(ctx context.Context, tx *gorm.DB, report *models.SettlementReport) error {
	return m.Called(ctx, tx, report).Error(0)
}

func (m *mockReportRepo) GetByReference(ctx context.Context, reference string) (*models.SettlementReport, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementReport), args.Error(1)
}

func (m *mockReportRepo) ListByMerchant(ctx context.Context, merchantID uint, period models.DateRange) ([]models.SettlementReport, error) {
	args := m.Called(ctx, merchantID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SettlementReport), args.Error(1)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Record(ctx context.Context, merchantID uint, data chargeback.Data) error {
	return m.Called(ctx, merchantID, data).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyMissingRates(ctx context.Context, missing notification.MissingRates, period models.DateRange) error {
	return m.Called(ctx, missing, period).Error(0)
}

func (m *mockNotifier) NotifyJobSucceeded(ctx context.Context, job notification.JobInfo) error {
	return m.Called(ctx, job).Error(0)
}

func (m *mockNotifier) NotifyJobFailed(ctx context.Context, job notification.JobInfo) error {
	return m.Called(ctx, job).Error(0)
}
