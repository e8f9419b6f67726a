// Package chargeback tracks the lifecycle of disputed transactions:
// PROCESSING -> APPROVED/DECLINED -> settled. Settled rows are terminal.
package chargeback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payclear/internal/metrics"
	"payclear/internal/models"
	"payclear/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Data is the immutable chargeback snapshot built during a totals fold: one
// raw transaction row joined with its resolved exchange rate. Built once,
// never mutated.
type Data struct {
	TransactionID string
	Amount        decimal.Decimal // major units of Currency
	Currency      string
	AmountEur     decimal.Decimal
	ExchangeRate  decimal.Decimal
	Status        string
	ProcessedDate time.Time
}

// Tracker persists and transitions chargeback lifecycle rows.
type Tracker struct {
	repo    repositories.ChargebackRepository
	logger  *zap.Logger
	metrics metrics.Collector
}

// NewTracker creates a tracker.
func NewTracker(repo repositories.ChargebackRepository, logger *zap.Logger, collector metrics.Collector) *Tracker {
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &Tracker{repo: repo, logger: logger, metrics: collector}
}

// Record is called once per chargeback transaction during a totals fold. A
// transaction seen for the first time is tracked; a known one gets a status
// update.
func (t *Tracker) Record(ctx context.Context, merchantID uint, data Data) error {
	exists, err := t.repo.Exists(ctx, data.TransactionID)
	if err != nil {
		return fmt.Errorf("failed to check chargeback %s: %w", data.TransactionID, err)
	}
	if exists {
		return t.UpdateStatus(ctx, data.TransactionID, data.Status)
	}
	return t.TrackNew(ctx, merchantID, data)
}

// TrackNew inserts a fresh tracking row with initial and current status equal
// to the observed status. Failures are logged with full context and
// re-thrown: a swallowed tracking failure silently loses audit trail.
func (t *Tracker) TrackNew(ctx context.Context, merchantID uint, data Data) error {
	tracking := &models.ChargebackTracking{
		MerchantID:     merchantID,
		TransactionID:  data.TransactionID,
		Amount:         data.Amount.Shift(2).Round(0).IntPart(),
		Currency:       data.Currency,
		AmountEur:      data.AmountEur.Shift(2).Round(0).IntPart(),
		ExchangeRate:   data.ExchangeRate.String(),
		InitialStatus:  data.Status,
		CurrentStatus:  data.Status,
		ProcessingDate: data.ProcessedDate,
	}

	err := t.repo.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(tracking).Error
	})
	if err != nil {
		t.logger.Error("failed to track new chargeback",
			zap.Uint("merchant_id", merchantID),
			zap.String("transaction_id", data.TransactionID),
			zap.String("status", data.Status),
			zap.Error(err),
		)
		return fmt.Errorf("failed to track chargeback %s: %w", data.TransactionID, err)
	}

	t.metrics.RecordChargebackTracked(data.Status)
	return nil
}

// UpdateStatus moves the unsettled row for a transaction forward. The row is
// taken with a row lock gated on settled=false; a missing row is a silent
// no-op, since the chargeback may already be settled or not yet tracked.
// Transitions only go forward from PROCESSING; a row already in a terminal
// status is left untouched.
func (t *Tracker) UpdateStatus(ctx context.Context, transactionID, status string) error {
	if status == models.ChargebackStatusProcessing {
		return nil
	}
	return t.repo.Transaction(ctx, func(tx *gorm.DB) error {
		tracking, err := t.repo.FindUnsettledForUpdate(ctx, tx, transactionID)
		if err != nil {
			if errors.Is(err, repositories.ErrChargebackNotFound) {
				return nil
			}
			return err
		}
		if tracking.CurrentStatus != models.ChargebackStatusProcessing {
			return nil
		}
		now := time.Now().UTC()
		tracking.CurrentStatus = status
		tracking.StatusChangedDate = &now
		if err := t.repo.Save(ctx, tx, tracking); err != nil {
			return err
		}
		t.metrics.RecordChargebackTracked(status)
		return nil
	})
}

// MarkAsSettled closes the given chargebacks in one transaction, forcing the
// terminal status per bucket.
func (t *Tracker) MarkAsSettled(ctx context.Context, approvedIDs, declinedIDs []string) error {
	return t.repo.Transaction(ctx, func(tx *gorm.DB) error {
		approved, err := t.repo.MarkSettled(ctx, tx, approvedIDs, models.ChargebackStatusApproved)
		if err != nil {
			return err
		}
		declined, err := t.repo.MarkSettled(ctx, tx, declinedIDs, models.ChargebackStatusDeclined)
		if err != nil {
			return err
		}
		t.logger.Info("chargebacks settled",
			zap.Int64("approved", approved),
			zap.Int64("declined", declined),
		)
		return nil
	})
}

// GetPendingSettlements returns the merchant's unsettled chargebacks still
// awaiting their first outcome.
func (t *Tracker) GetPendingSettlements(ctx context.Context, merchantID uint) ([]models.ChargebackTracking, error) {
	return t.repo.GetPendingSettlements(ctx, merchantID)
}
