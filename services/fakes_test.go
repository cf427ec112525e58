package services

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventra/eventra_backend/models"
)

// In-memory stores backing the engine tests. They honor the same sentinel
// errors as the Mongo implementations.

type fakeTx struct {
	calls int
}

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeConfigStore struct {
	configs map[primitive.ObjectID]*models.CommissionConfig
}

func newFakeConfigStore() *fakeConfigStore {
	return &fakeConfigStore{configs: make(map[primitive.ObjectID]*models.CommissionConfig)}
}

func (f *fakeConfigStore) ConfigByOrganizer(_ context.Context, organizerID primitive.ObjectID) (*models.CommissionConfig, error) {
	cfg, ok := f.configs[organizerID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *cfg
	return &copied, nil
}

func (f *fakeConfigStore) SaveConfig(_ context.Context, cfg *models.CommissionConfig) error {
	copied := *cfg
	f.configs[cfg.OrganizerID] = &copied
	return nil
}

type fakeOverrideStore struct {
	overrides []models.AgentCommissionOverride
}

func (f *fakeOverrideStore) OverridesForAgent(_ context.Context, agentID, organizerID primitive.ObjectID) ([]models.AgentCommissionOverride, error) {
	var out []models.AgentCommissionOverride
	for _, o := range f.overrides {
		if o.AgentID == agentID && o.OrganizerID == organizerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOverrideStore) InsertOverride(_ context.Context, o *models.AgentCommissionOverride) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	f.overrides = append(f.overrides, *o)
	return nil
}

func (f *fakeOverrideStore) DeleteOverride(_ context.Context, id primitive.ObjectID) error {
	for i, o := range f.overrides {
		if o.ID == id {
			f.overrides = append(f.overrides[:i], f.overrides[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

type fakePermissionStore struct {
	permissions map[primitive.ObjectID]*models.AgentPermission
}

func newFakePermissionStore() *fakePermissionStore {
	return &fakePermissionStore{permissions: make(map[primitive.ObjectID]*models.AgentPermission)}
}

func (f *fakePermissionStore) PermissionByID(_ context.Context, id primitive.ObjectID) (*models.AgentPermission, error) {
	perm, ok := f.permissions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *perm
	return &copied, nil
}

type progressionKey struct {
	agent, organizer primitive.ObjectID
}

type fakeProgressionStore struct {
	progressions map[progressionKey]*models.TierProgression
}

func newFakeProgressionStore() *fakeProgressionStore {
	return &fakeProgressionStore{progressions: make(map[progressionKey]*models.TierProgression)}
}

func (f *fakeProgressionStore) Progression(_ context.Context, agentID, organizerID primitive.ObjectID) (*models.TierProgression, error) {
	prog, ok := f.progressions[progressionKey{agentID, organizerID}]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *prog
	copied.TierHistory = append([]models.TierHistoryEntry(nil), prog.TierHistory...)
	return &copied, nil
}

func (f *fakeProgressionStore) SaveProgression(_ context.Context, p *models.TierProgression) error {
	copied := *p
	copied.TierHistory = append([]models.TierHistoryEntry(nil), p.TierHistory...)
	f.progressions[progressionKey{p.AgentID, p.OrganizerID}] = &copied
	return nil
}

func (f *fakeProgressionStore) ProgressionsForOrganizer(_ context.Context, organizerID primitive.ObjectID) ([]models.TierProgression, error) {
	var out []models.TierProgression
	for key, prog := range f.progressions {
		if key.organizer == organizerID {
			out = append(out, *prog)
		}
	}
	return out, nil
}

type fakeAttributionStore struct {
	byOrder map[string]*models.SalesAttribution
}

func newFakeAttributionStore() *fakeAttributionStore {
	return &fakeAttributionStore{byOrder: make(map[string]*models.SalesAttribution)}
}

func (f *fakeAttributionStore) InsertAttribution(_ context.Context, a *models.SalesAttribution) error {
	if _, exists := f.byOrder[a.OrderID]; exists {
		return ErrDuplicateKey
	}
	copied := *a
	f.byOrder[a.OrderID] = &copied
	return nil
}

func (f *fakeAttributionStore) AttributionByOrder(_ context.Context, orderID string) (*models.SalesAttribution, error) {
	a, ok := f.byOrder[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

type fakeLinkStore struct {
	links map[primitive.ObjectID]*models.TrackableLink
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{links: make(map[primitive.ObjectID]*models.TrackableLink)}
}

func (f *fakeLinkStore) LinkByID(_ context.Context, id primitive.ObjectID) (*models.TrackableLink, error) {
	l, ok := f.links[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (f *fakeLinkStore) LinkByCode(_ context.Context, code string) (*models.TrackableLink, error) {
	for _, l := range f.links {
		if l.Code == code {
			copied := *l
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeLinkStore) InsertLink(_ context.Context, l *models.TrackableLink) error {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	copied := *l
	f.links[l.ID] = &copied
	return nil
}

func (f *fakeLinkStore) RecordClick(_ context.Context, id primitive.ObjectID) error {
	l, ok := f.links[id]
	if !ok {
		return ErrNotFound
	}
	l.ClickCount++
	return nil
}

func (f *fakeLinkStore) ApplyConversion(_ context.Context, id primitive.ObjectID, revenueCents, commissionCents int64) error {
	l, ok := f.links[id]
	if !ok {
		return ErrNotFound
	}
	l.ConversionCount++
	l.RevenueGenerated += revenueCents
	l.CommissionEarned += commissionCents
	return nil
}

type fakeRecordStore struct {
	records map[primitive.ObjectID]*models.CommissionRecord
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: make(map[primitive.ObjectID]*models.CommissionRecord)}
}

func (f *fakeRecordStore) InsertRecord(_ context.Context, r *models.CommissionRecord) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	copied := *r
	copied.StatusHistory = append([]models.CommissionAudit(nil), r.StatusHistory...)
	f.records[r.ID] = &copied
	return nil
}

func (f *fakeRecordStore) RecordByID(_ context.Context, id primitive.ObjectID) (*models.CommissionRecord, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r
	copied.StatusHistory = append([]models.CommissionAudit(nil), r.StatusHistory...)
	return &copied, nil
}

func (f *fakeRecordStore) ListRecords(_ context.Context, filter RecordFilter) ([]models.CommissionRecord, error) {
	var out []models.CommissionRecord
	for _, r := range f.records {
		if r.OrganizerID != filter.OrganizerID {
			continue
		}
		if filter.AgentID != nil && r.AgentID != *filter.AgentID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.From != nil && r.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !r.CreatedAt.Before(*filter.To) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRecordStore) SumCommissionInWindow(_ context.Context, agentID, organizerID primitive.ObjectID, from, to time.Time) (int64, error) {
	var total int64
	for _, r := range f.records {
		if r.AgentID != agentID || r.OrganizerID != organizerID {
			continue
		}
		if r.Status == models.RecordStatusCancelled {
			continue
		}
		if r.CreatedAt.Before(from) || !r.CreatedAt.Before(to) {
			continue
		}
		total += r.GrossAmount
	}
	return total, nil
}

func (f *fakeRecordStore) TransitionRecord(_ context.Context, id primitive.ObjectID, fromStatuses []string, toStatus string, audit models.CommissionAudit) (*models.CommissionRecord, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	allowed := false
	for _, from := range fromStatuses {
		if r.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrNotFound
	}
	r.Status = toStatus
	r.UpdatedAt = time.Now()
	r.StatusHistory = append(r.StatusHistory, audit)
	copied := *r
	copied.StatusHistory = append([]models.CommissionAudit(nil), r.StatusHistory...)
	return &copied, nil
}

func (f *fakeRecordStore) AppendAudit(_ context.Context, id primitive.ObjectID, audit models.CommissionAudit) error {
	r, ok := f.records[id]
	if !ok {
		return ErrNotFound
	}
	r.StatusHistory = append(r.StatusHistory, audit)
	return nil
}

func (f *fakeRecordStore) SetRecordBatch(_ context.Context, ids []primitive.ObjectID, batchID primitive.ObjectID) error {
	for _, id := range ids {
		r, ok := f.records[id]
		if !ok {
			return ErrNotFound
		}
		b := batchID
		r.PayoutBatchID = &b
	}
	return nil
}

func (f *fakeRecordStore) SetRecordPaid(_ context.Context, id primitive.ObjectID, paidAt time.Time) error {
	r, ok := f.records[id]
	if !ok {
		return ErrNotFound
	}
	t := paidAt
	r.PaidAt = &t
	return nil
}

func (f *fakeRecordStore) SetRecordNetAmount(_ context.Context, id primitive.ObjectID, netAmount int64) error {
	r, ok := f.records[id]
	if !ok {
		return ErrNotFound
	}
	r.NetAmount = netAmount
	return nil
}

type fakeBatchStore struct {
	batches map[primitive.ObjectID]*models.PayoutBatch
}

func newFakeBatchStore() *fakeBatchStore {
	return &fakeBatchStore{batches: make(map[primitive.ObjectID]*models.PayoutBatch)}
}

func (f *fakeBatchStore) InsertBatch(_ context.Context, b *models.PayoutBatch) error {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	copied := *b
	f.batches[b.ID] = &copied
	return nil
}

func (f *fakeBatchStore) BatchByID(_ context.Context, id primitive.ObjectID) (*models.PayoutBatch, error) {
	b, ok := f.batches[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBatchStore) ListBatches(_ context.Context, organizerID primitive.ObjectID) ([]models.PayoutBatch, error) {
	var out []models.PayoutBatch
	for _, b := range f.batches {
		if b.OrganizerID == organizerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBatchStore) UpdateBatchStatus(_ context.Context, id primitive.ObjectID, status string, processedAt *time.Time) error {
	b, ok := f.batches[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	if processedAt != nil {
		t := *processedAt
		b.ProcessedAt = &t
	}
	return nil
}

type fakeDisputeStore struct {
	disputes map[primitive.ObjectID]*models.PaymentDispute
}

func newFakeDisputeStore() *fakeDisputeStore {
	return &fakeDisputeStore{disputes: make(map[primitive.ObjectID]*models.PaymentDispute)}
}

func (f *fakeDisputeStore) InsertDispute(_ context.Context, d *models.PaymentDispute) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	copied := *d
	f.disputes[d.ID] = &copied
	return nil
}

func (f *fakeDisputeStore) DisputeByID(_ context.Context, id primitive.ObjectID) (*models.PaymentDispute, error) {
	d, ok := f.disputes[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDisputeStore) UpdateDispute(_ context.Context, d *models.PaymentDispute) error {
	if _, ok := f.disputes[d.ID]; !ok {
		return ErrNotFound
	}
	copied := *d
	f.disputes[d.ID] = &copied
	return nil
}

type fakeUserStore struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserStore) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}
