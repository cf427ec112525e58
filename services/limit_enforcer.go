package services

import (
	"context"
	"time"

	"github.com/eventra/eventra_backend/models"
)

// Limit types reported on a clamp.
const (
	LimitTypeDaily   = "daily"
	LimitTypeMonthly = "monthly"
)

// LimitResult is the outcome of cap enforcement. Clamping is a successful
// result, never an error: a sale is never refused because of a commission
// cap, only the commission payable shrinks.
type LimitResult struct {
	FinalAmount int64  `json:"finalAmount"`
	WasClamped  bool   `json:"wasClamped"`
	LimitType   string `json:"limitType,omitempty"`
}

// LimitEnforcer clamps a proposed commission against the agent's daily and
// monthly caps. Caps apply to gross commission already recorded in the
// ledger (not raw sales). Must run inside the same transaction as the ledger
// insert; two concurrent sales near a cap must not both read the same stale
// running total.
type LimitEnforcer struct {
	records RecordStore
}

func NewLimitEnforcer(records RecordStore) *LimitEnforcer {
	return &LimitEnforcer{records: records}
}

// Enforce checks daily then monthly headroom and returns the smaller
// admissible amount. A zero cap means unlimited.
func (l *LimitEnforcer) Enforce(ctx context.Context, perm *models.AgentPermission, proposedCents int64, saleTime time.Time) (*LimitResult, error) {
	result := &LimitResult{FinalAmount: proposedCents}

	if perm.MaxDailySales > 0 {
		dayStart := saleTime.UTC().Truncate(24 * time.Hour)
		dayTotal, err := l.records.SumCommissionInWindow(ctx, perm.AgentID, perm.OrganizerID, dayStart, dayStart.Add(24*time.Hour))
		if err != nil {
			return nil, err
		}
		headroom := perm.MaxDailySales - dayTotal
		if headroom < 0 {
			headroom = 0
		}
		if result.FinalAmount > headroom {
			result.FinalAmount = headroom
			result.WasClamped = true
			result.LimitType = LimitTypeDaily
		}
	}

	if perm.MaxMonthlySales > 0 {
		t := saleTime.UTC()
		monthStart := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		monthTotal, err := l.records.SumCommissionInWindow(ctx, perm.AgentID, perm.OrganizerID, monthStart, monthStart.AddDate(0, 1, 0))
		if err != nil {
			return nil, err
		}
		headroom := perm.MaxMonthlySales - monthTotal
		if headroom < 0 {
			headroom = 0
		}
		// Both caps may apply; the smaller remaining headroom governs.
		if result.FinalAmount > headroom {
			result.FinalAmount = headroom
			result.WasClamped = true
			result.LimitType = LimitTypeMonthly
		}
	}

	return result, nil
}
