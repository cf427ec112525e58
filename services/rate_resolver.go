package services

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventra/eventra_backend/models"
	"github.com/eventra/eventra_backend/utils"
)

// Rate sources, reported on every resolution for auditability.
const (
	RateSourceOverride = "override"
	RateSourceTier     = "tier"
	RateSourceDefault  = "default"
	RateSourceFixed    = "fixed"
)

// RateResult is the outcome of a rate resolution.
type RateResult struct {
	Rate        float64                `json:"rate"`
	Source      string                 `json:"source"`
	Tier        *models.CommissionTier `json:"tierDetails,omitempty"`
	FixedAmount int64                  `json:"fixedAmount,omitempty"` // cents, fixed_amount permissions only
}

// CommissionFor computes the gross commission and tier bonus (cents) for a
// sale amount. The bonus percentage is applied separately, never folded into
// the rate. Rounding happens once per amount, at the end.
func (r *RateResult) CommissionFor(saleAmountCents int64) (gross, bonus int64) {
	if r.Source == RateSourceFixed {
		return r.FixedAmount, 0
	}
	gross = utils.PercentOf(saleAmountCents, r.Rate)
	if r.Tier != nil && r.Tier.BonusPercentage > 0 {
		bonus = utils.PercentOf(saleAmountCents, r.Tier.BonusPercentage)
	}
	return gross, bonus
}

// RateResolver determines the effective commission rate for a sale.
// Precedence: event-scoped override > general override > tier > default.
// Among overrides of equal specificity the most recently created wins; the
// source keeps overlapping override windows underspecified, so the tie-break
// is pinned here deliberately.
type RateResolver struct {
	configs   ConfigStore
	overrides OverrideStore
	tracker   *TierTracker
}

func NewRateResolver(configs ConfigStore, overrides OverrideStore, tracker *TierTracker) *RateResolver {
	return &RateResolver{configs: configs, overrides: overrides, tracker: tracker}
}

// Resolve picks the effective rate for a sale at the given instant.
func (r *RateResolver) Resolve(ctx context.Context, perm *models.AgentPermission, eventID *primitive.ObjectID, at time.Time) (*RateResult, error) {
	// Fixed-amount permissions bypass rate math entirely.
	if perm.CommissionType == models.CommissionTypeFixedAmount {
		return &RateResult{
			Source:      RateSourceFixed,
			FixedAmount: perm.CommissionFixedAmount,
		}, nil
	}

	cfg, err := r.configs.ConfigByOrganizer(ctx, perm.OrganizerID)
	if err != nil {
		if err == ErrNotFound {
			return nil, &ConfigurationError{
				OrganizerID: perm.OrganizerID.Hex(),
				Reason:      "no commission config",
			}
		}
		return nil, err
	}

	if cfg.OverridesEnabled {
		override, err := r.activeOverride(ctx, perm, eventID, at)
		if err != nil {
			return nil, err
		}
		if override != nil {
			return &RateResult{Rate: override.Rate, Source: RateSourceOverride}, nil
		}
	}

	if cfg.TiersEnabled || perm.CommissionType == models.CommissionTypeTiered {
		tier, err := r.tracker.CurrentTier(ctx, perm.AgentID, perm.OrganizerID, at)
		if err != nil {
			return nil, err
		}
		tierCopy := *tier
		return &RateResult{Rate: tier.CommissionRate, Source: RateSourceTier, Tier: &tierCopy}, nil
	}

	// Default: the permission's own rate when set, else the organizer default.
	rate := perm.CommissionRate
	if rate == 0 {
		rate = cfg.DefaultRate
	}
	return &RateResult{Rate: rate, Source: RateSourceDefault}, nil
}

// activeOverride returns the winning override for the sale instant, or nil.
func (r *RateResolver) activeOverride(ctx context.Context, perm *models.AgentPermission, eventID *primitive.ObjectID, at time.Time) (*models.AgentCommissionOverride, error) {
	overrides, err := r.overrides.OverridesForAgent(ctx, perm.AgentID, perm.OrganizerID)
	if err != nil {
		return nil, err
	}

	var matches []models.AgentCommissionOverride
	for _, o := range overrides {
		if o.Covers(at, eventID) {
			matches = append(matches, o)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	// Most specific first (event-scoped over general), then most recent.
	sort.SliceStable(matches, func(i, j int) bool {
		iScoped, jScoped := matches[i].EventID != nil, matches[j].EventID != nil
		if iScoped != jScoped {
			return iScoped
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return &matches[0], nil
}
