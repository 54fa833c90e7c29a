package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	core "github.com/enerhub/edi_services/internal/core_domain"
	"github.com/enerhub/edi_services/internal/outbox_service/domain"
)

// Querier is the common interface of pgxpool.Pool and pgx.Tx so repository
// methods can run inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// ActorMessageQueueRepository persists mailboxes. The queue row doubles as the
// per-mailbox lock: the ForUpdate variants must be called inside a transaction.
type ActorMessageQueueRepository interface {
	// GetOrCreateForUpdate returns the actor's queue with its row locked,
	// creating the queue lazily on first use.
	GetOrCreateForUpdate(ctx context.Context, q Querier, actor core.Actor) (*domain.ActorMessageQueue, error)
	// GetForUpdate returns the actor's queue with its row locked, or nil when
	// the actor has never been enqueued to.
	GetForUpdate(ctx context.Context, q Querier, actor core.Actor) (*domain.ActorMessageQueue, error)
}

// BundleRepository persists bundles and their lifecycle stamps.
type BundleRepository interface {
	Create(ctx context.Context, q Querier, bundle *domain.Bundle) error
	// FindOpenBundle returns an accumulating bundle with remaining capacity
	// for the grouping key, or nil.
	FindOpenBundle(ctx context.Context, q Querier, queueID uuid.UUID,
		documentType core.DocumentType, businessReason core.BusinessReason,
		relatedToMessageID *string) (*domain.Bundle, error)
	// AddMessage increments the bundle's message count and closes it when the
	// configured capacity is reached.
	AddMessage(ctx context.Context, q Querier, bundleID uuid.UUID, now time.Time) error
	// FindOldestClosed returns the oldest closed, not yet dequeued bundle of
	// the queue whose document type is in documentTypes, or nil.
	FindOldestClosed(ctx context.Context, q Querier, queueID uuid.UUID,
		documentTypes []core.DocumentType) (*domain.Bundle, error)
	// FindByMessageID returns the queue's bundle with the given public
	// message id, or nil.
	FindByMessageID(ctx context.Context, q Querier, queueID uuid.UUID,
		messageID uuid.UUID) (*domain.Bundle, error)
	MarkPeeked(ctx context.Context, q Querier, bundleID uuid.UUID,
		peekedAt time.Time, format core.DocumentFormat, documentPath string) error
	// MarkDequeued stamps dequeued_at and reports whether a row matched.
	MarkDequeued(ctx context.Context, q Querier, bundleID uuid.UUID, dequeuedAt time.Time) (bool, error)
	// CloseBundlesOlderThan closes every accumulating bundle created before
	// cutoff and returns the number of bundles closed.
	CloseBundlesOlderThan(ctx context.Context, q Querier, cutoff, now time.Time) (int64, error)
}

// OutgoingMessageRepository persists outgoing messages. Create returns
// database.ErrUniqueViolation (wrapped) when the idempotency tuple already
// exists.
type OutgoingMessageRepository interface {
	Create(ctx context.Context, q Querier, msg *domain.OutgoingMessage) error
	// FindByIdempotencyKey returns the message with the given tuple, or nil.
	FindByIdempotencyKey(ctx context.Context, q Querier, key domain.IdempotencyKey) (*domain.OutgoingMessage, error)
	AssignToBundle(ctx context.Context, q Querier, messageID, bundleID uuid.UUID) error
	// ListByBundle returns the bundle's messages in creation order.
	ListByBundle(ctx context.Context, q Querier, bundleID uuid.UUID) ([]*domain.OutgoingMessage, error)
}

// DelegationRepository persists mailbox delegations.
type DelegationRepository interface {
	Create(ctx context.Context, q Querier, delegation *domain.Delegation) error
	// FindByDelegator returns all delegations for the delegator, grid area
	// and process type, newest sequence number first.
	FindByDelegator(ctx context.Context, q Querier, delegatedBy core.Actor,
		gridArea string, processType core.ProcessType) ([]*domain.Delegation, error)
}
