package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventra/eventra_backend/models"
)

// Store interfaces consumed by the engine. The Mongo implementations live in
// the repositories package; tests supply in-memory fakes.

// TxRunner runs fn atomically. All writes issued through ctx inside fn either
// commit together or roll back together. Implementations retry transient
// conflicts a bounded number of times and return SerializationConflictError
// when retries are exhausted.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ConfigStore reads and writes organizer commission configs.
type ConfigStore interface {
	ConfigByOrganizer(ctx context.Context, organizerID primitive.ObjectID) (*models.CommissionConfig, error)
	SaveConfig(ctx context.Context, cfg *models.CommissionConfig) error
}

// OverrideStore reads and writes per-agent rate overrides.
type OverrideStore interface {
	OverridesForAgent(ctx context.Context, agentID, organizerID primitive.ObjectID) ([]models.AgentCommissionOverride, error)
	InsertOverride(ctx context.Context, o *models.AgentCommissionOverride) error
	DeleteOverride(ctx context.Context, id primitive.ObjectID) error
}

// PermissionStore reads agent permissions (owned by permission management,
// read-only here).
type PermissionStore interface {
	PermissionByID(ctx context.Context, id primitive.ObjectID) (*models.AgentPermission, error)
}

// ProgressionStore reads and writes per (agent, organizer) tier state.
type ProgressionStore interface {
	Progression(ctx context.Context, agentID, organizerID primitive.ObjectID) (*models.TierProgression, error)
	SaveProgression(ctx context.Context, p *models.TierProgression) error
	ProgressionsForOrganizer(ctx context.Context, organizerID primitive.ObjectID) ([]models.TierProgression, error)
}

// AttributionStore persists sales attributions. InsertAttribution must be
// atomic check-and-insert on OrderID (unique index, not check-then-insert).
type AttributionStore interface {
	InsertAttribution(ctx context.Context, a *models.SalesAttribution) error
	AttributionByOrder(ctx context.Context, orderID string) (*models.SalesAttribution, error)
}

// ErrDuplicateKey is returned by stores on unique-index violations.
// Defined here so fakes and the Mongo implementation agree on it.
type duplicateKeyError struct{}

func (duplicateKeyError) Error() string { return "duplicate key" }

// ErrDuplicateKey sentinel instance.
var ErrDuplicateKey error = duplicateKeyError{}

// ErrNotFound is returned by stores when a document does not exist.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// LinkStore persists trackable links and their counters.
type LinkStore interface {
	LinkByID(ctx context.Context, id primitive.ObjectID) (*models.TrackableLink, error)
	LinkByCode(ctx context.Context, code string) (*models.TrackableLink, error)
	InsertLink(ctx context.Context, l *models.TrackableLink) error
	RecordClick(ctx context.Context, id primitive.ObjectID) error
	// ApplyConversion increments conversion_count, revenue_generated and
	// commission_earned in one update.
	ApplyConversion(ctx context.Context, id primitive.ObjectID, revenueCents, commissionCents int64) error
}

// RecordFilter narrows ledger listings.
type RecordFilter struct {
	OrganizerID primitive.ObjectID
	AgentID     *primitive.ObjectID
	Status      string
	From        *time.Time
	To          *time.Time
}

// RecordStore persists commission ledger entries.
type RecordStore interface {
	InsertRecord(ctx context.Context, r *models.CommissionRecord) error
	RecordByID(ctx context.Context, id primitive.ObjectID) (*models.CommissionRecord, error)
	ListRecords(ctx context.Context, f RecordFilter) ([]models.CommissionRecord, error)
	// SumCommissionInWindow sums gross commission (cents) recorded for the
	// agent in [from, to), across every non-cancelled record.
	SumCommissionInWindow(ctx context.Context, agentID, organizerID primitive.ObjectID, from, to time.Time) (int64, error)
	// TransitionRecord moves a record from one of fromStatuses to toStatus and
	// appends the audit entry, atomically. Returns ErrNotFound when the record
	// is not currently in an allowed state.
	TransitionRecord(ctx context.Context, id primitive.ObjectID, fromStatuses []string, toStatus string, audit models.CommissionAudit) (*models.CommissionRecord, error)
	// AppendAudit appends an audit entry without changing status (used to log
	// rejected transition attempts).
	AppendAudit(ctx context.Context, id primitive.ObjectID, audit models.CommissionAudit) error
	// SetRecordBatch stamps the payout batch id on the given records.
	SetRecordBatch(ctx context.Context, ids []primitive.ObjectID, batchID primitive.ObjectID) error
	// SetRecordPaid stamps paidAt on a paid record.
	SetRecordPaid(ctx context.Context, id primitive.ObjectID, paidAt time.Time) error
	// SetRecordNetAmount rewrites the payable amount of a not-yet-paid record
	// (dispute resolution on unpaid records only).
	SetRecordNetAmount(ctx context.Context, id primitive.ObjectID, netAmount int64) error
}

// BatchStore persists payout batches.
type BatchStore interface {
	InsertBatch(ctx context.Context, b *models.PayoutBatch) error
	BatchByID(ctx context.Context, id primitive.ObjectID) (*models.PayoutBatch, error)
	ListBatches(ctx context.Context, organizerID primitive.ObjectID) ([]models.PayoutBatch, error)
	UpdateBatchStatus(ctx context.Context, id primitive.ObjectID, status string, processedAt *time.Time) error
}

// DisputeStore persists payment disputes.
type DisputeStore interface {
	InsertDispute(ctx context.Context, d *models.PaymentDispute) error
	DisputeByID(ctx context.Context, id primitive.ObjectID) (*models.PaymentDispute, error)
	UpdateDispute(ctx context.Context, d *models.PaymentDispute) error
}

// UserStore reads users for notification targeting.
type UserStore interface {
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}
