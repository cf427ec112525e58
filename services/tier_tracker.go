package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventra/eventra_backend/models"
)

// TierTracker maintains per (agent, organizer) tier state: rolling sales
// volume for the active calendar month, the current tier, and an append-only
// tier history. Promotions apply immediately on the sale that crosses the
// boundary; demotions only ever happen at period rollover so the rate cannot
// flap inside a billing cycle.
type TierTracker struct {
	configs      ConfigStore
	progressions ProgressionStore
}

func NewTierTracker(configs ConfigStore, progressions ProgressionStore) *TierTracker {
	return &TierTracker{configs: configs, progressions: progressions}
}

// ValidateTiers checks an organizer's tier table: ascending, contiguous,
// non-overlapping half-open intervals, highest tier unbounded. Gaps are an
// organizer misconfiguration and must be surfaced, never papered over.
func ValidateTiers(organizerID primitive.ObjectID, tiers []models.CommissionTier) error {
	if len(tiers) == 0 {
		return &ConfigurationError{OrganizerID: organizerID.Hex(), Reason: "tier system enabled with no tiers"}
	}
	sorted := make([]models.CommissionTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinSalesVolume < sorted[j].MinSalesVolume })

	if sorted[0].MinSalesVolume != 0 {
		return &ConfigurationError{OrganizerID: organizerID.Hex(), Reason: "lowest tier must start at volume 0"}
	}
	for i, t := range sorted {
		last := i == len(sorted)-1
		if last {
			if t.MaxSalesVolume != nil {
				return &ConfigurationError{OrganizerID: organizerID.Hex(), Reason: "highest tier must have no upper bound"}
			}
			continue
		}
		if t.MaxSalesVolume == nil {
			return &ConfigurationError{OrganizerID: organizerID.Hex(), Reason: fmt.Sprintf("tier %q has no upper bound but is not the highest tier", t.Name)}
		}
		if *t.MaxSalesVolume != sorted[i+1].MinSalesVolume {
			return &ConfigurationError{
				OrganizerID: organizerID.Hex(),
				Reason:      fmt.Sprintf("gap between tier %q and %q", t.Name, sorted[i+1].Name),
			}
		}
	}
	return nil
}

// tierForVolume finds the tier whose [min, max) interval contains volume.
func (t *TierTracker) tierForVolume(cfg *models.CommissionConfig, volume int64) (*models.CommissionTier, error) {
	for i := range cfg.Tiers {
		tier := &cfg.Tiers[i]
		if volume < tier.MinSalesVolume {
			continue
		}
		if tier.MaxSalesVolume == nil || volume < *tier.MaxSalesVolume {
			return tier, nil
		}
	}
	return nil, &ConfigurationError{
		OrganizerID: cfg.OrganizerID.Hex(),
		Reason:      fmt.Sprintf("no tier matches sales volume %d", volume),
	}
}

func (t *TierTracker) tierByName(cfg *models.CommissionConfig, name string) *models.CommissionTier {
	for i := range cfg.Tiers {
		if cfg.Tiers[i].Name == name {
			return &cfg.Tiers[i]
		}
	}
	return nil
}

// CurrentTier returns the agent's tier for rate resolution. Read-only: a
// stale period does not demote here, that waits for the rollover trigger.
func (t *TierTracker) CurrentTier(ctx context.Context, agentID, organizerID primitive.ObjectID, at time.Time) (*models.CommissionTier, error) {
	cfg, err := t.configs.ConfigByOrganizer(ctx, organizerID)
	if err != nil {
		if err == ErrNotFound {
			return nil, &ConfigurationError{OrganizerID: organizerID.Hex(), Reason: "no commission config"}
		}
		return nil, err
	}
	if err := ValidateTiers(organizerID, cfg.Tiers); err != nil {
		return nil, err
	}

	prog, err := t.progressions.Progression(ctx, agentID, organizerID)
	if err != nil {
		if err == ErrNotFound {
			return t.tierForVolume(cfg, 0)
		}
		return nil, err
	}
	if tier := t.tierByName(cfg, prog.CurrentTier); tier != nil {
		return tier, nil
	}
	// Tier table changed under the agent; fall back to volume lookup.
	return t.tierForVolume(cfg, prog.RollingSalesVolume)
}

// RecordSale folds a newly attributed sale into the rolling volume and
// promotes immediately when a tier boundary is crossed. Must run inside the
// same transaction as the attribution write so a rolled-back sale can never
// leave a promotion behind.
func (t *TierTracker) RecordSale(ctx context.Context, agentID, organizerID primitive.ObjectID, saleAmountCents int64, at time.Time) (*models.TierProgression, bool, error) {
	cfg, err := t.configs.ConfigByOrganizer(ctx, organizerID)
	if err != nil {
		if err == ErrNotFound {
			return nil, false, &ConfigurationError{OrganizerID: organizerID.Hex(), Reason: "no commission config"}
		}
		return nil, false, err
	}
	if !cfg.TiersEnabled {
		return nil, false, nil
	}
	if err := ValidateTiers(organizerID, cfg.Tiers); err != nil {
		return nil, false, err
	}

	periodKey := models.PeriodKeyFor(at)
	now := time.Now()

	prog, err := t.progressions.Progression(ctx, agentID, organizerID)
	if err != nil {
		if err != ErrNotFound {
			return nil, false, err
		}
		base, terr := t.tierForVolume(cfg, 0)
		if terr != nil {
			return nil, false, terr
		}
		prog = &models.TierProgression{
			AgentID:     agentID,
			OrganizerID: organizerID,
			CurrentTier: base.Name,
			PeriodKey:   periodKey,
			CreatedAt:   now,
		}
	}

	// Lazy rollover: the first sale of a new period demotes before counting.
	if prog.PeriodKey != periodKey {
		if err := t.rolloverProgression(cfg, prog, periodKey, now); err != nil {
			return nil, false, err
		}
	}

	current := t.tierByName(cfg, prog.CurrentTier)
	if current == nil {
		current, err = t.tierForVolume(cfg, prog.RollingSalesVolume)
		if err != nil {
			return nil, false, err
		}
		prog.CurrentTier = current.Name
	}

	prog.RollingSalesVolume += saleAmountCents

	promoted := false
	target, err := t.tierForVolume(cfg, prog.RollingSalesVolume)
	if err != nil {
		return nil, false, err
	}
	// Only ever move up mid-period.
	if target.MinSalesVolume > current.MinSalesVolume {
		prog.TierHistory = append(prog.TierHistory, models.TierHistoryEntry{
			TierName:               target.Name,
			PromotedAt:             now,
			SalesVolumeAtPromotion: prog.RollingSalesVolume,
			PriorTierDurationDays:  t.priorTierDays(prog, now),
		})
		prog.CurrentTier = target.Name
		promoted = true
	}

	prog.UpdatedAt = now
	if err := t.progressions.SaveProgression(ctx, prog); err != nil {
		return nil, false, err
	}
	return prog, promoted, nil
}

// Rollover resets every stale progression for the organizer to the new
// period, demoting where the fresh volume no longer supports the tier. The
// sole demotion trigger; idempotent, safe to re-run.
func (t *TierTracker) Rollover(ctx context.Context, organizerID primitive.ObjectID, now time.Time) (int, error) {
	cfg, err := t.configs.ConfigByOrganizer(ctx, organizerID)
	if err != nil {
		if err == ErrNotFound {
			return 0, &ConfigurationError{OrganizerID: organizerID.Hex(), Reason: "no commission config"}
		}
		return 0, err
	}
	if !cfg.TiersEnabled {
		return 0, nil
	}
	if err := ValidateTiers(organizerID, cfg.Tiers); err != nil {
		return 0, err
	}

	progs, err := t.progressions.ProgressionsForOrganizer(ctx, organizerID)
	if err != nil {
		return 0, err
	}

	periodKey := models.PeriodKeyFor(now)
	rolled := 0
	for i := range progs {
		prog := &progs[i]
		if prog.PeriodKey == periodKey {
			continue
		}
		if err := t.rolloverProgression(cfg, prog, periodKey, now); err != nil {
			return rolled, err
		}
		prog.UpdatedAt = now
		if err := t.progressions.SaveProgression(ctx, prog); err != nil {
			return rolled, err
		}
		rolled++
		log.Printf("Tier rollover: agent %s organizer %s now %s (period %s)",
			prog.AgentID.Hex(), prog.OrganizerID.Hex(), prog.CurrentTier, periodKey)
	}
	return rolled, nil
}

// rolloverProgression resets the rolling volume for a new period and demotes
// to the tier the fresh volume supports.
func (t *TierTracker) rolloverProgression(cfg *models.CommissionConfig, prog *models.TierProgression, periodKey string, now time.Time) error {
	base, err := t.tierForVolume(cfg, 0)
	if err != nil {
		return err
	}
	if prog.CurrentTier != base.Name {
		prog.TierHistory = append(prog.TierHistory, models.TierHistoryEntry{
			TierName:               base.Name,
			PromotedAt:             now,
			SalesVolumeAtPromotion: 0,
			PriorTierDurationDays:  t.priorTierDays(prog, now),
		})
	}
	prog.CurrentTier = base.Name
	prog.RollingSalesVolume = 0
	prog.PeriodKey = periodKey
	return nil
}

// priorTierDays measures how long the outgoing tier was held.
func (t *TierTracker) priorTierDays(prog *models.TierProgression, now time.Time) int {
	since := prog.CreatedAt
	if n := len(prog.TierHistory); n > 0 {
		since = prog.TierHistory[n-1].PromotedAt
	}
	if since.IsZero() {
		return 0
	}
	return int(now.Sub(since).Hours() / 24)
}
