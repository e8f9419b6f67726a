package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"payclear/internal/models"
	"payclear/internal/repositories"
	"payclear/internal/services/exchangerate"
	"payclear/internal/services/fees"
	"payclear/internal/services/notification"
	"payclear/internal/services/reserve"
	"payclear/internal/services/totals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

type fixture struct {
	db           *mockDB
	txRepo       *mockTransactionRepo
	merchantRepo *mockMerchantRepo
	feeRepo      *mockFeeRepo
	reserveRepo  *mockReserveRepo
	reportRepo   *mockReportRepo
	sink         *mockSink
	notifier     *mockNotifier
	service      *Service
}

func newFixture() *fixture {
	f := &fixture{
		db:           new(mockDB),
		txRepo:       new(mockTransactionRepo),
		merchantRepo: new(mockMerchantRepo),
		feeRepo:      new(mockFeeRepo),
		reserveRepo:  new(mockReserveRepo),
		reportRepo:   new(mockReportRepo),
		sink:         new(mockSink),
		notifier:     new(mockNotifier),
	}
	logger := zap.NewNop()
	f.service = NewService(Config{
		DB:           f.db,
		TxRepo:       f.txRepo,
		MerchantRepo: f.merchantRepo,
		ReportRepo:   f.reportRepo,
		Calculator:   totals.NewCalculator(f.sink, logger, nil),
		FeeEngine:    fees.NewEngine(f.merchantRepo, f.feeRepo, logger, nil),
		Reserves:     reserve.NewHandler(f.merchantRepo, f.reserveRepo, logger, nil),
		Validator:    exchangerate.NewValidationService(f.txRepo, f.notifier, logger),
		Notifier:     f.notifier,
		Logger:       logger,
	})
	return f
}

func defaultSettings() *models.MerchantSetting {
	return &models.MerchantSetting{
		MerchantID:               7,
		MDRPercentage:            250,
		TransactionFee:           35,
		RollingReservePercentage: 1000,
		HoldingPeriodDays:        180,
		ExchangeRateMarkup:       "1.01",
		FxRateMarkup:             150,
	}
}

func eurSales(count int, amountCents int64, added string) []models.Transaction {
	var txs []models.Transaction
	for i := 0; i < count; i++ {
		txs = append(txs, models.Transaction{
			TransactionID:     "t" + string(rune('0'+i)),
			TransactionType:   models.TransactionTypeSale,
			TransactionStatus: models.TransactionStatusApproved,
			Currency:          "EUR",
			Amount:            amountCents,
			BinBrand:          models.BrandVisa,
			AddedDate:         day(added),
		})
	}
	return txs
}

func feeTypeRows() []models.FeeType {
	return []models.FeeType{
		{ID: 1, Key: models.FeeKeyMDR, Name: "MDR Fee", FrequencyType: models.FrequencyTransaction, IsPercentage: true},
		{ID: 2, Key: models.FeeKeyTransaction, Name: "Transaction Fee", FrequencyType: models.FrequencyTransaction},
		{ID: 7, Key: models.FeeKeyMonthly, Name: "Monthly Fee", FrequencyType: models.FrequencyMonthly},
	}
}

func TestService_Generate(t *testing.T) {
	period := models.NewDateRange(day("2025-06-01"), day("2025-06-30"))
	merchant := &models.Merchant{ID: 7, AccountID: 77, Name: "Acme Ltd"}

	t.Run("settles one EUR period end to end", func(t *testing.T) {
		f := newFixture()
		f.merchantRepo.On("GetByID", mock.Anything, uint(7)).Return(merchant, nil)
		f.merchantRepo.On("GetSettings", mock.Anything, uint(7)).Return(defaultSettings(), nil)
		f.txRepo.On("GetCurrencies", mock.Anything, uint(77), period).Return([]string{"EUR"}, nil)
		f.txRepo.On("GetSchemeRates", mock.Anything, period, []string{"EUR"}).
			Return([]models.SchemeRate{}, nil)
		f.txRepo.On("GetMerchantTransactions", mock.Anything, uint(77), period, "").
			Return(eurSales(5, 20000, "2025-06-10"), nil)
		f.feeRepo.On("GetActiveMerchantFees", mock.Anything, uint(7), period.Start).
			Return([]models.MerchantFee{}, nil)
		f.feeRepo.On("GetFeeTypes", mock.Anything).Return(feeTypeRows(), nil)
		f.feeRepo.On("RecordFeeHistory", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.reserveRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(e *models.RollingReserveEntry) bool {
			return e.ReserveAmountEur == 10000 && e.Status == models.ReserveStatusPending
		})).Return(nil)
		f.reserveRepo.On("GetReleasable", mock.Anything, uint(7), mock.Anything).
			Return([]models.RollingReserveEntry{}, nil)
		f.db.On("Transaction", mock.Anything).Return(nil)

		var saved *models.SettlementReport
		f.reportRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				saved = args.Get(2).(*models.SettlementReport)
			}).Return(nil)

		reports, err := f.service.Generate(context.Background(), 7, nil, period)

		assert.NoError(t, err)
		assert.Len(t, reports, 1)

		report := reports[0]
		assert.Equal(t, "EUR", report.Currency)
		assert.Equal(t, "2025-06-01", report.PeriodStart)
		assert.Equal(t, "2025-06-30", report.PeriodEnd)
		assert.NotEmpty(t, report.ReportReference)
		assert.Equal(t, int64(5), report.TransactionSalesCount)
		assert.Equal(t, 1000.0, report.TotalSalesAmount)
		assert.Equal(t, 1000.0, report.TotalSalesAmountEur)
		assert.Equal(t, 1.0, report.ExchangeRate)
		assert.Equal(t, 0.015, report.FxRate)
		assert.Equal(t, 100.0, report.RollingReserve)
		assert.Equal(t, 0.0, report.ReleaseableReserve)

		assert.Len(t, report.Fees, 2)
		assert.Equal(t, 25.0, report.Fees[0].Amount) // 2.50% MDR over 1000.00
		assert.Equal(t, 1.75, report.Fees[1].Amount) // 0.35 x 5

		assert.NotNil(t, saved)
		assert.Equal(t, report.ReportReference, saved.Reference)
		assert.Equal(t, models.ReportStatusGenerated, saved.Status)
		assert.Equal(t, report.ReportReference, saved.Totals["report_reference"])
	})

	t.Run("zero-transaction period still bills standing charges", func(t *testing.T) {
		f := newFixture()
		settings := defaultSettings()
		settings.MonthlyFee = 15000
		settings.RollingReservePercentage = 0
		f.merchantRepo.On("GetByID", mock.Anything, uint(7)).Return(merchant, nil)
		f.merchantRepo.On("GetSettings", mock.Anything, uint(7)).Return(settings, nil)
		f.txRepo.On("GetCurrencies", mock.Anything, uint(77), period).Return([]string{}, nil)
		f.txRepo.On("GetSchemeRates", mock.Anything, period, []string{"EUR"}).
			Return([]models.SchemeRate{}, nil)
		f.txRepo.On("GetMerchantTransactions", mock.Anything, uint(77), period, "").
			Return([]models.Transaction{}, nil)
		f.feeRepo.On("GetActiveMerchantFees", mock.Anything, uint(7), period.Start).
			Return([]models.MerchantFee{}, nil)
		f.feeRepo.On("GetFeeTypes", mock.Anything).Return(feeTypeRows(), nil)
		f.feeRepo.On("RecordFeeHistory", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.reserveRepo.On("GetReleasable", mock.Anything, uint(7), mock.Anything).
			Return([]models.RollingReserveEntry{}, nil)
		f.db.On("Transaction", mock.Anything).Return(nil)
		f.reportRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		reports, err := f.service.Generate(context.Background(), 7, nil, period)

		assert.NoError(t, err)
		assert.Len(t, reports, 1)
		assert.Equal(t, "EUR", reports[0].Currency)
		assert.Equal(t, int64(0), reports[0].TransactionSalesCount)
		assert.Len(t, reports[0].Fees, 1)
		assert.Equal(t, models.FeeKeyMonthly, reports[0].Fees[0].Key)
		assert.Equal(t, 150.0, reports[0].Fees[0].Amount)
	})

	t.Run("multi-currency run bills standing charges once", func(t *testing.T) {
		short := models.NewDateRange(day("2025-06-01"), day("2025-06-02"))
		var gbpRates []models.SchemeRate
		for _, brand := range exchangerate.RequiredBrands {
			for _, d := range short.Days() {
				gbpRates = append(gbpRates, models.SchemeRate{Currency: "GBP", Brand: brand, RateDate: d, Rate: "1.25"})
			}
		}
		txs := append(eurSales(2, 20000, "2025-06-01"), models.Transaction{
			TransactionID:     "g1",
			TransactionType:   models.TransactionTypeSale,
			TransactionStatus: models.TransactionStatusApproved,
			Currency:          "GBP",
			Amount:            50000,
			BinBrand:          models.BrandVisa,
			AddedDate:         day("2025-06-01"),
		})

		f := newFixture()
		settings := defaultSettings()
		settings.MonthlyFee = 15000
		settings.RollingReservePercentage = 0
		f.merchantRepo.On("GetByID", mock.Anything, uint(7)).Return(merchant, nil)
		f.merchantRepo.On("GetSettings", mock.Anything, uint(7)).Return(settings, nil)
		f.txRepo.On("GetCurrencies", mock.Anything, uint(77), short).Return([]string{"EUR", "GBP"}, nil)
		f.txRepo.On("GetSchemeRates", mock.Anything, short, []string{"EUR", "GBP"}).Return(gbpRates, nil)
		f.txRepo.On("GetMerchantTransactions", mock.Anything, uint(77), short, "").Return(txs, nil)
		f.feeRepo.On("GetActiveMerchantFees", mock.Anything, uint(7), short.Start).
			Return([]models.MerchantFee{}, nil)
		f.feeRepo.On("GetFeeTypes", mock.Anything).Return(feeTypeRows(), nil)
		f.reserveRepo.On("GetReleasable", mock.Anything, uint(7), mock.Anything).
			Return([]models.RollingReserveEntry{}, nil)
		f.db.On("Transaction", mock.Anything).Return(nil)
		f.reportRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		var monthlyHistoryRows int
		f.feeRepo.On("RecordFeeHistory", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				if args.Get(2).(*models.FeeHistory).FeeTypeID == 7 {
					monthlyHistoryRows++
				}
			}).Return(nil)

		reports, err := f.service.Generate(context.Background(), 7, nil, short)

		assert.NoError(t, err)
		assert.Len(t, reports, 2)
		assert.Equal(t, "EUR", reports[0].Currency)
		assert.Equal(t, "GBP", reports[1].Currency)

		monthlyLines := 0
		for _, r := range reports {
			for _, fee := range r.Fees {
				if fee.Key == models.FeeKeyMonthly {
					monthlyLines++
					assert.Equal(t, "EUR", r.Currency)
				}
			}
		}
		assert.Equal(t, 1, monthlyLines)
		assert.Equal(t, 1, monthlyHistoryRows)
	})

	t.Run("missing scheme rates abort before any settlement work", func(t *testing.T) {
		f := newFixture()
		f.merchantRepo.On("GetByID", mock.Anything, uint(7)).Return(merchant, nil)
		f.merchantRepo.On("GetSettings", mock.Anything, uint(7)).Return(defaultSettings(), nil)
		f.txRepo.On("GetCurrencies", mock.Anything, uint(77), period).Return([]string{"GBP"}, nil)
		f.txRepo.On("GetSchemeRates", mock.Anything, period, []string{"GBP"}).
			Return([]models.SchemeRate{}, nil)
		f.notifier.On("NotifyMissingRates", mock.Anything, mock.Anything, period).Return(nil)

		_, err := f.service.Generate(context.Background(), 7, nil, period)

		var missingErr *exchangerate.MissingRatesError
		assert.ErrorAs(t, err, &missingErr)
		f.db.AssertNotCalled(t, "Transaction", mock.Anything)
		f.notifier.AssertExpectations(t)
	})

	t.Run("unknown merchant fails fast", func(t *testing.T) {
		f := newFixture()
		f.merchantRepo.On("GetByID", mock.Anything, uint(99)).
			Return(nil, repositories.ErrMerchantNotFound)

		_, err := f.service.Generate(context.Background(), 99, nil, period)
		assert.ErrorIs(t, err, repositories.ErrMerchantNotFound)
	})

	t.Run("persistence failure rolls the run back", func(t *testing.T) {
		f := newFixture()
		f.merchantRepo.On("GetByID", mock.Anything, uint(7)).Return(merchant, nil)
		f.merchantRepo.On("GetSettings", mock.Anything, uint(7)).Return(defaultSettings(), nil)
		f.txRepo.On("GetCurrencies", mock.Anything, uint(77), period).Return([]string{"EUR"}, nil)
		f.txRepo.On("GetSchemeRates", mock.Anything, period, []string{"EUR"}).
			Return([]models.SchemeRate{}, nil)
		f.txRepo.On("GetMerchantTransactions", mock.Anything, uint(77), period, "").
			Return(eurSales(1, 20000, "2025-06-10"), nil)
		f.feeRepo.On("GetActiveMerchantFees", mock.Anything, uint(7), period.Start).
			Return([]models.MerchantFee{}, nil)
		f.feeRepo.On("GetFeeTypes", mock.Anything).Return(feeTypeRows(), nil)
		f.feeRepo.On("RecordFeeHistory", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.reserveRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.reserveRepo.On("GetReleasable", mock.Anything, uint(7), mock.Anything).
			Return([]models.RollingReserveEntry{}, nil)
		f.db.On("Transaction", mock.Anything).Return(nil)
		f.reportRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("disk full"))

		_, err := f.service.Generate(context.Background(), 7, nil, period)
		assert.ErrorContains(t, err, "settlement failed for merchant 7 currency EUR")
	})
}

func TestService_RunJob(t *testing.T) {
	period := models.NewDateRange(day("2025-06-01"), day("2025-06-30"))

	t.Run("failure fires the job-failed alert", func(t *testing.T) {
		f := newFixture()
		f.merchantRepo.On("GetByID", mock.Anything, uint(99)).
			Return(nil, repositories.ErrMerchantNotFound)
		f.notifier.On("NotifyJobFailed", mock.Anything, mock.MatchedBy(func(job notification.JobInfo) bool {
			return job.JobID == "job-1" && job.Attempt == 2 && job.Error != ""
		})).Return(nil)

		_, err := f.service.RunJob(context.Background(), "job-1", 2, 99, nil, period)

		assert.Error(t, err)
		f.notifier.AssertExpectations(t)
	})

	t.Run("success fires the job-succeeded alert", func(t *testing.T) {
		f := newFixture()
		merchant := &models.Merchant{ID: 7, AccountID: 77}
		settings := defaultSettings()
		settings.RollingReservePercentage = 0
		f.merchantRepo.On("GetByID", mock.Anything, uint(7)).Return(merchant, nil)
		f.merchantRepo.On("GetSettings", mock.Anything, uint(7)).Return(settings, nil)
		f.txRepo.On("GetCurrencies", mock.Anything, uint(77), period).Return([]string{"EUR"}, nil)
		f.txRepo.On("GetSchemeRates", mock.Anything, period, []string{"EUR"}).
			Return([]models.SchemeRate{}, nil)
		f.txRepo.On("GetMerchantTransactions", mock.Anything, uint(77), period, "").
			Return([]models.Transaction{}, nil)
		f.feeRepo.On("GetActiveMerchantFees", mock.Anything, uint(7), period.Start).
			Return([]models.MerchantFee{}, nil)
		f.feeRepo.On("GetFeeTypes", mock.Anything).Return(feeTypeRows(), nil)
		f.reserveRepo.On("GetReleasable", mock.Anything, uint(7), mock.Anything).
			Return([]models.RollingReserveEntry{}, nil)
		f.db.On("Transaction", mock.Anything).Return(nil)
		f.reportRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.notifier.On("NotifyJobSucceeded", mock.Anything, mock.MatchedBy(func(job notification.JobInfo) bool {
			return job.JobID == "job-2" && job.MerchantID == 7
		})).Return(nil)

		reports, err := f.service.RunJob(context.Background(), "job-2", 1, 7, nil, period)

		assert.NoError(t, err)
		assert.Len(t, reports, 1)
		f.notifier.AssertExpectations(t)
	})
}
