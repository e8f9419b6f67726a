package fees

import (
	"context"
	"testing"

	"payclear/internal/models"
	"payclear/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func seededFeeTypes() []models.FeeType {
	return []models.FeeType{
		{ID: 1, Key: models.FeeKeyMDR, Name: "MDR Fee", FrequencyType: models.FrequencyTransaction, IsPercentage: true},
		{ID: 2, Key: models.FeeKeyTransaction, Name: "Transaction Fee", FrequencyType: models.FrequencyTransaction},
		{ID: 7, Key: models.FeeKeyMonthly, Name: "Monthly Fee", FrequencyType: models.FrequencyMonthly},
		{ID: 10, Key: models.FeeKeySetup, Name: "Setup Fee", FrequencyType: models.FrequencyOneTime},
	}
}

func TestEngine_Calculate(t *testing.T) {
	period := models.NewDateRange(day("2025-06-01"), day("2025-06-30"))

	t.Run("unknown merchant is a hard failure", func(t *testing.T) {
		merchantRepo := new(mockMerchantRepo)
		merchantRepo.On("GetByID", mock.Anything, uint(99)).Return(nil, repositories.ErrMerchantNotFound)

		engine := NewEngine(merchantRepo, new(mockFeeRepo), zap.NewNop(), nil)
		_, err := engine.Calculate(context.Background(), 99, nil, period, fiveSalesOneThousandEur(), true)

		assert.ErrorIs(t, err, ErrMerchantNotFound)
	})

	t.Run("missing settings is a hard failure", func(t *testing.T) {
		merchantRepo := new(mockMerchantRepo)
		merchantRepo.On("GetByID", mock.Anything, uint(7)).Return(&models.Merchant{ID: 7}, nil)
		merchantRepo.On("GetSettings", mock.Anything, uint(7)).Return(nil, repositories.ErrSettingsNotFound)

		engine := NewEngine(merchantRepo, new(mockFeeRepo), zap.NewNop(), nil)
		_, err := engine.Calculate(context.Background(), 7, nil, period, fiveSalesOneThousandEur(), true)

		assert.ErrorIs(t, err, ErrSettingsMissing)
	})

	t.Run("standard and custom lines merge with fee type ids resolved", func(t *testing.T) {
		merchantRepo := new(mockMerchantRepo)
		merchantRepo.On("GetByID", mock.Anything, uint(7)).Return(&models.Merchant{ID: 7}, nil)
		merchantRepo.On("GetSettings", mock.Anything, uint(7)).
			Return(&models.MerchantSetting{MDRPercentage: 250, TransactionFee: 35}, nil)

		feeRepo := new(mockFeeRepo)
		feeRepo.On("GetActiveMerchantFees", mock.Anything, uint(7), period.Start).Return([]models.MerchantFee{
			{Amount: 500, FeeType: models.FeeType{ID: 42, Key: "listing_fee", Name: "Listing Fee", FrequencyType: models.FrequencyTransaction}},
		}, nil)
		feeRepo.On("GetFeeTypes", mock.Anything).Return(seededFeeTypes(), nil)

		engine := NewEngine(merchantRepo, feeRepo, zap.NewNop(), nil)
		lines, err := engine.Calculate(context.Background(), 7, nil, period, fiveSalesOneThousandEur(), true)

		assert.NoError(t, err)
		assert.Len(t, lines, 3)

		mdr, _ := lineByKey(lines, models.FeeKeyMDR)
		assert.Equal(t, uint(1), mdr.FeeTypeID)
		txFee, _ := lineByKey(lines, models.FeeKeyTransaction)
		assert.Equal(t, uint(2), txFee.FeeTypeID)
		listing, _ := lineByKey(lines, "listing_fee")
		assert.Equal(t, uint(42), listing.FeeTypeID)
	})

	t.Run("frequency gate filters lines out of cycle", func(t *testing.T) {
		// period starting mid-month: the configured monthly fee must not fire
		midMonth := models.NewDateRange(day("2025-06-15"), day("2025-06-21"))

		merchantRepo := new(mockMerchantRepo)
		merchantRepo.On("GetByID", mock.Anything, uint(7)).Return(&models.Merchant{ID: 7}, nil)
		merchantRepo.On("GetSettings", mock.Anything, uint(7)).
			Return(&models.MerchantSetting{TransactionFee: 35, MonthlyFee: 15000}, nil)

		feeRepo := new(mockFeeRepo)
		feeRepo.On("GetActiveMerchantFees", mock.Anything, uint(7), midMonth.Start).Return([]models.MerchantFee{}, nil)
		feeRepo.On("GetFeeTypes", mock.Anything).Return(seededFeeTypes(), nil)

		engine := NewEngine(merchantRepo, feeRepo, zap.NewNop(), nil)
		lines, err := engine.Calculate(context.Background(), 7, nil, midMonth, fiveSalesOneThousandEur(), true)

		assert.NoError(t, err)
		assert.Len(t, lines, 1)
		assert.Equal(t, models.FeeKeyTransaction, lines[0].Key)
	})

	t.Run("standing charges are suppressed on secondary currencies", func(t *testing.T) {
		merchantRepo := new(mockMerchantRepo)
		merchantRepo.On("GetByID", mock.Anything, uint(7)).Return(&models.Merchant{ID: 7}, nil)
		merchantRepo.On("GetSettings", mock.Anything, uint(7)).
			Return(&models.MerchantSetting{TransactionFee: 35, MonthlyFee: 15000, SetupFee: 50000}, nil)

		feeRepo := new(mockFeeRepo)
		feeRepo.On("GetActiveMerchantFees", mock.Anything, uint(7), period.Start).Return([]models.MerchantFee{}, nil)
		feeRepo.On("GetFeeTypes", mock.Anything).Return(seededFeeTypes(), nil)

		engine := NewEngine(merchantRepo, feeRepo, zap.NewNop(), nil)
		lines, err := engine.Calculate(context.Background(), 7, nil, period, fiveSalesOneThousandEur(), false)

		assert.NoError(t, err)
		assert.Len(t, lines, 1)
		assert.Equal(t, models.FeeKeyTransaction, lines[0].Key)
		feeRepo.AssertNotCalled(t, "HasAnyHistory", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("setup fee consults the history ledger", func(t *testing.T) {
		merchantRepo := new(mockMerchantRepo)
		merchantRepo.On("GetByID", mock.Anything, uint(7)).Return(&models.Merchant{ID: 7}, nil)
		merchantRepo.On("GetSettings", mock.Anything, uint(7)).
			Return(&models.MerchantSetting{SetupFee: 50000}, nil)

		feeRepo := new(mockFeeRepo)
		feeRepo.On("GetActiveMerchantFees", mock.Anything, uint(7), period.Start).Return([]models.MerchantFee{}, nil)
		feeRepo.On("GetFeeTypes", mock.Anything).Return(seededFeeTypes(), nil)
		feeRepo.On("HasAnyHistory", mock.Anything, uint(7), uint(10)).Return(true, nil)

		engine := NewEngine(merchantRepo, feeRepo, zap.NewNop(), nil)
		lines, err := engine.Calculate(context.Background(), 7, nil, period, fiveSalesOneThousandEur(), true)

		assert.NoError(t, err)
		assert.Empty(t, lines)
		feeRepo.AssertExpectations(t)
	})
}

func TestEngine_RecordHistory(t *testing.T) {
	merchantRepo := new(mockMerchantRepo)
	feeRepo := new(mockFeeRepo)
	feeRepo.On("RecordFeeHistory", mock.Anything, mock.Anything, mock.MatchedBy(func(h *models.FeeHistory) bool {
		return h.MerchantID == 7 &&
			h.FeeTypeID == 1 &&
			h.FeeAmountEur == 2500 &&
			h.BaseAmount == 100000 &&
			h.ReportReference == "ref-1"
	})).Return(nil)

	engine := NewEngine(merchantRepo, feeRepo, zap.NewNop(), nil)
	period := models.NewDateRange(day("2025-06-01"), day("2025-06-30"))
	lines := []Line{{FeeTypeID: 1, Key: models.FeeKeyMDR, Amount: d("25.00")}}

	err := engine.RecordHistory(context.Background(), nil, 7, lines, fiveSalesOneThousandEur(), "ref-1", period)
	assert.NoError(t, err)
	feeRepo.AssertExpectations(t)
}

func TestEngine_MarkSetupFeeCharged(t *testing.T) {
	t.Run("flips the flag when a setup line was emitted", func(t *testing.T) {
		merchantRepo := new(mockMerchantRepo)
		settings := &models.MerchantSetting{MerchantID: 7, SetupFee: 50000}
		merchantRepo.On("GetSettings", mock.Anything, uint(7)).Return(settings, nil)
		merchantRepo.On("SaveSettings", mock.Anything, mock.Anything, mock.MatchedBy(func(s *models.MerchantSetting) bool {
			return s.SetupFeeCharged
		})).Return(nil)

		engine := NewEngine(merchantRepo, new(mockFeeRepo), zap.NewNop(), nil)
		err := engine.MarkSetupFeeCharged(context.Background(), nil, 7, []Line{{Key: models.FeeKeySetup}})

		assert.NoError(t, err)
		merchantRepo.AssertExpectations(t)
	})

	t.Run("no-op without a setup line", func(t *testing.T) {
		merchantRepo := new(mockMerchantRepo)
		engine := NewEngine(merchantRepo, new(mockFeeRepo), zap.NewNop(), nil)

		err := engine.MarkSetupFeeCharged(context.Background(), nil, 7, []Line{{Key: models.FeeKeyMDR}})
		assert.NoError(t, err)
		merchantRepo.AssertNotCalled(t, "GetSettings", mock.Anything, mock.Anything)
	})
}
