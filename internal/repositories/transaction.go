package repositories

import (
	"context"
	"fmt"

	"payclear/internal/models"

	"gorm.io/gorm"
)

// TransactionRepository reads raw processor data. Backed by the processing
// database; this application never writes through it.
type TransactionRepository interface {
	// GetMerchantTransactions returns all transactions for the merchant's
	// processing account inside the period, optionally filtered by currency.
	GetMerchantTransactions(ctx context.Context, accountID uint, period models.DateRange, currency string) ([]models.Transaction, error)
	// GetSchemeRates returns all scheme rates for the given currencies inside
	// the period.
	GetSchemeRates(ctx context.Context, period models.DateRange, currencies []string) ([]models.SchemeRate, error)
	// GetCurrencies returns the distinct transaction currencies for the
	// merchant's account inside the period.
	GetCurrencies(ctx context.Context, accountID uint, period models.DateRange) ([]string, error)
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a repository over the processing database.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) GetMerchantTransactions(ctx context.Context, accountID uint, period models.DateRange, currency string) ([]models.Transaction, error) {
	var txs []models.Transaction
	q := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Where("added_date >= ? AND added_date < ?", period.Start, period.End.AddDate(0, 0, 1))
	if currency != "" {
		q = q.Where("currency = ?", currency)
	}
	if err := q.Order("added_date").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch merchant transactions: %w", err)
	}
	return txs, nil
}

func (r *transactionRepository) GetSchemeRates(ctx context.Context, period models.DateRange, currencies []string) ([]models.SchemeRate, error) {
	var rates []models.SchemeRate
	q := r.db.WithContext(ctx).
		Where("rate_date BETWEEN ? AND ?", period.Start, period.End)
	if len(currencies) > 0 {
		q = q.Where("currency IN ?", currencies)
	}
	if err := q.Find(&rates).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch scheme rates: %w", err)
	}
	return rates, nil
}

func (r *transactionRepository) GetCurrencies(ctx context.Context, accountID uint, period models.DateRange) ([]string, error) {
	var currencies []string
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("account_id = ?", accountID).
		Where("added_date >= ? AND added_date < ?", period.Start, period.End.AddDate(0, 0, 1)).
		Distinct().
		Pluck("currency", &currencies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch currencies: %w", err)
	}
	return currencies, nil
}
