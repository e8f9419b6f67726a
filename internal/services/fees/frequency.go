package fees

import (
	"context"
	"fmt"
	"time"

	"payclear/internal/models"
	"payclear/internal/repositories"
)

// FrequencyHandler decides whether a fee of a given frequency fires for a
// billing period.
type FrequencyHandler struct {
	feeRepo repositories.FeeRepository
}

// NewFrequencyHandler creates a frequency handler.
func NewFrequencyHandler(feeRepo repositories.FeeRepository) *FrequencyHandler {
	return &FrequencyHandler{feeRepo: feeRepo}
}

// periodicGraceDays is the window at the start of a month/year inside which a
// periodic fee may fire, so settlement runs early in the cycle bill exactly
// once.
const periodicGraceDays = 7

// ShouldApply reports whether a fee with the given frequency applies to a
// settlement starting at periodStart. one_time fees consult the fee history
// ledger. Unknown frequencies never apply.
func (h *FrequencyHandler) ShouldApply(ctx context.Context, merchantID, feeTypeID uint, frequency string, periodStart time.Time) (bool, error) {
	switch frequency {
	case models.FrequencyTransaction, models.FrequencyDaily, models.FrequencyWeekly:
		return true, nil
	case models.FrequencyOneTime:
		applied, err := h.feeRepo.HasAnyHistory(ctx, merchantID, feeTypeID)
		if err != nil {
			return false, fmt.Errorf("failed to check one-time fee history: %w", err)
		}
		return !applied, nil
	case models.FrequencyMonthly:
		return periodStart.Day() <= periodicGraceDays, nil
	case models.FrequencyYearly:
		return periodStart.Month() == time.January && periodStart.Day() <= periodicGraceDays, nil
	}
	return false, nil
}

// standingFrequency reports whether a frequency bills per run rather than per
// transaction volume.
func standingFrequency(frequency string) bool {
	switch frequency {
	case models.FrequencyMonthly, models.FrequencyYearly, models.FrequencyOneTime:
		return true
	}
	return false
}
