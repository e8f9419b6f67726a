// Package notification defines the alerting capability the settlement engine
// depends on. Delivery (mail, chat webhooks) is an external concern; the
// default implementation only logs the structured payload.
package notification

import (
	"context"

	"payclear/internal/models"

	"go.uber.org/zap"
)

// MissingRates maps currency -> brand -> the dates with no scheme rate.
type MissingRates map[string]map[string][]string

// JobInfo describes one settlement job run for success/failure alerts.
type JobInfo struct {
	JobID      string
	Attempt    int
	MerchantID uint
	Period     models.DateRange
	Error      string
}

// Notifier is the alerting capability injected into the engine.
type Notifier interface {
	NotifyMissingRates(ctx context.Context, missing MissingRates, period models.DateRange) error
	NotifyJobSucceeded(ctx context.Context, job JobInfo) error
	NotifyJobFailed(ctx context.Context, job JobInfo) error
}

// LogNotifier logs alerts instead of delivering them. Used as the default and
// in development.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a logging notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyMissingRates(ctx context.Context, missing MissingRates, period models.DateRange) error {
	n.logger.Warn("missing scheme rates detected",
		zap.Any("missing", missing),
		zap.Time("period_start", period.Start),
		zap.Time("period_end", period.End),
	)
	return nil
}

func (n *LogNotifier) NotifyJobSucceeded(ctx context.Context, job JobInfo) error {
	n.logger.Info("settlement job succeeded",
		zap.String("job_id", job.JobID),
		zap.Int("attempt", job.Attempt),
		zap.Uint("merchant_id", job.MerchantID),
		zap.Time("period_start", job.Period.Start),
		zap.Time("period_end", job.Period.End),
	)
	return nil
}

func (n *LogNotifier) NotifyJobFailed(ctx context.Context, job JobInfo) error {
	n.logger.Error("settlement job failed",
		zap.String("job_id", job.JobID),
		zap.Int("attempt", job.Attempt),
		zap.Uint("merchant_id", job.MerchantID),
		zap.Time("period_start", job.Period.Start),
		zap.Time("period_end", job.Period.End),
		zap.String("error", job.Error),
	)
	return nil
}
