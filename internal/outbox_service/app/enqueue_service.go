package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	archivedomain "github.com/enerhub/edi_services/internal/archive_service/domain"
	archiverepo "github.com/enerhub/edi_services/internal/archive_service/repository"
	core "github.com/enerhub/edi_services/internal/core_domain"
	"github.com/enerhub/edi_services/internal/outbox_service/domain"
	"github.com/enerhub/edi_services/internal/outbox_service/repository"
	"github.com/enerhub/edi_services/internal/platform/database"
)

// DBPool is the subset of pgxpool.Pool the application services need: plain
// queries plus transaction scopes.
type DBPool interface {
	repository.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ArchiveWriter is the archive service surface the outbox depends on. Append
// joins the caller's transaction through the querier argument.
type ArchiveWriter interface {
	Append(ctx context.Context, q archiverepo.Querier, input archivedomain.ArchivedMessageInput) (*archivedomain.ArchivedMessage, error)
}

// EnqueueService is the idempotent mailbox router: it deduplicates an
// outgoing message, resolves its mailbox owner and assigns it to a bundle.
type EnqueueService struct {
	db            DBPool
	queues        repository.ActorMessageQueueRepository
	bundles       repository.BundleRepository
	messages      repository.OutgoingMessageRepository
	resolver      *DelegationResolver
	archive       ArchiveWriter
	maxBundleSize int
	logger        *slog.Logger
}

// NewEnqueueService creates the enqueue service.
func NewEnqueueService(
	db DBPool,
	queues repository.ActorMessageQueueRepository,
	bundles repository.BundleRepository,
	messages repository.OutgoingMessageRepository,
	resolver *DelegationResolver,
	archive ArchiveWriter,
	maxBundleSize int,
	logger *slog.Logger,
) *EnqueueService {
	return &EnqueueService{
		db:            db,
		queues:        queues,
		bundles:       bundles,
		messages:      messages,
		resolver:      resolver,
		archive:       archive,
		maxBundleSize: maxBundleSize,
		logger:        logger.With("service", "enqueue"),
	}
}

// Enqueue routes one outgoing message into its mailbox. The call is
// idempotent across commits: a repeat of an already committed idempotency
// tuple is a no-op returning the existing message's id. Two calls racing
// before either commit are resolved by the unique index; the loser receives
// ErrDuplicateIdempotencyKey and is expected to retry as a fresh call.
func (s *EnqueueService) Enqueue(ctx context.Context, input domain.NewOutgoingMessage) (uuid.UUID, error) {
	if err := input.Validate(); err != nil {
		return uuid.Nil, err
	}
	now := time.Now().UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin enqueue tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	// Pre-check read: an optimization only, the unique index below is the
	// source of truth.
	existing, err := s.messages.FindByIdempotencyKey(ctx, tx, input.Key())
	if err != nil {
		return uuid.Nil, fmt.Errorf("idempotency pre-check: %w", err)
	}
	if existing != nil {
		messagesEnqueuedCounter.WithLabelValues("duplicate").Inc()
		s.logger.InfoContext(ctx, "Duplicate enqueue ignored",
			"outgoing_message_id", existing.ID, "external_id", input.ExternalID)
		return existing.ID, nil
	}

	if input.Suppressed() {
		arch, err := s.archive.Append(ctx, tx, s.archiveInput(input, now))
		if err != nil {
			return uuid.Nil, fmt.Errorf("archive suppressed message: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return uuid.Nil, fmt.Errorf("commit suppressed enqueue: %w", err)
		}
		messagesEnqueuedCounter.WithLabelValues("suppressed").Inc()
		s.logger.InfoContext(ctx, "Message suppressed from mailbox, archived only",
			"archived_message_id", arch.ID, "receiver_role", input.DocumentReceiverRole,
			"business_reason", input.BusinessReason)
		return arch.ID, nil
	}

	documentReceiver := core.Actor{Number: input.DocumentReceiverNumber, Role: input.DocumentReceiverRole}
	mailboxTarget := domain.MailboxReceiver(documentReceiver)
	receiver, err := s.resolver.Resolve(ctx, tx, mailboxTarget, input.GridArea, input.ProcessType, now)
	if err != nil {
		return uuid.Nil, err
	}

	// The queue row lock serializes all bundle work for this mailbox.
	queue, err := s.queues.GetOrCreateForUpdate(ctx, tx, receiver)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lock mailbox: %w", err)
	}

	msg := &domain.OutgoingMessage{
		ID:                     uuid.New(),
		ReceiverNumber:         receiver.Number,
		ReceiverRole:           receiver.Role,
		DocumentReceiverNumber: input.DocumentReceiverNumber,
		DocumentReceiverRole:   input.DocumentReceiverRole,
		SenderNumber:           input.SenderNumber,
		SenderRole:             input.SenderRole,
		DocumentType:           input.DocumentType,
		BusinessReason:         input.BusinessReason,
		ProcessType:            input.ProcessType,
		GridArea:               input.GridArea,
		ExternalID:             input.ExternalID,
		PeriodStart:            input.PeriodStart,
		RelatedToMessageID:     input.RelatedToMessageID,
		FileStoragePath:        input.FileStoragePath,
		CreatedAt:              now,
	}
	if err := s.messages.Create(ctx, tx, msg); err != nil {
		if database.IsUniqueViolation(err) {
			return s.resolveDuplicate(ctx, input)
		}
		return uuid.Nil, fmt.Errorf("insert outgoing message: %w", err)
	}

	bundleID, created, err := s.assignToBundle(ctx, tx, queue.ID, msg, now)
	if err != nil {
		return uuid.Nil, err
	}

	if _, err := s.archive.Append(ctx, tx, s.archiveInput(input, now)); err != nil {
		return uuid.Nil, fmt.Errorf("archive outgoing message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit enqueue: %w", err)
	}

	messagesEnqueuedCounter.WithLabelValues("enqueued").Inc()
	if created {
		bundlesCreatedCounter.Inc()
	}
	s.logger.InfoContext(ctx, "Message enqueued",
		"outgoing_message_id", msg.ID, "bundle_id", bundleID,
		"receiver", receiver.String(), "document_type", msg.DocumentType)
	return msg.ID, nil
}

// resolveDuplicate classifies a unique-index violation. The transaction is
// aborted at this point, so the re-read goes through the pool and sees only
// committed state.
func (s *EnqueueService) resolveDuplicate(ctx context.Context, input domain.NewOutgoingMessage) (uuid.UUID, error) {
	existing, err := s.messages.FindByIdempotencyKey(ctx, s.db, input.Key())
	if err != nil {
		return uuid.Nil, fmt.Errorf("re-read after unique violation: %w", err)
	}
	if existing != nil {
		messagesEnqueuedCounter.WithLabelValues("duplicate").Inc()
		return existing.ID, nil
	}
	// The winning insert is not committed yet: a same-window race. The caller
	// retries as a fresh call and will then observe the committed duplicate.
	messagesEnqueuedCounter.WithLabelValues("conflict").Inc()
	return uuid.Nil, domain.ErrDuplicateIdempotencyKey
}

func (s *EnqueueService) assignToBundle(ctx context.Context, tx pgx.Tx, queueID uuid.UUID,
	msg *domain.OutgoingMessage, now time.Time) (uuid.UUID, bool, error) {

	bundle, err := s.bundles.FindOpenBundle(ctx, tx, queueID, msg.DocumentType, msg.BusinessReason, msg.RelatedToMessageID)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("find open bundle: %w", err)
	}
	created := false
	if bundle == nil {
		bundle = domain.NewBundle(queueID, msg.DocumentType, msg.BusinessReason, msg.RelatedToMessageID, s.maxBundleSize, now)
		if err := s.bundles.Create(ctx, tx, bundle); err != nil {
			return uuid.Nil, false, fmt.Errorf("create bundle: %w", err)
		}
		created = true
	}
	if err := s.messages.AssignToBundle(ctx, tx, msg.ID, bundle.ID); err != nil {
		return uuid.Nil, false, fmt.Errorf("assign message to bundle: %w", err)
	}
	if err := s.bundles.AddMessage(ctx, tx, bundle.ID, now); err != nil {
		return uuid.Nil, false, fmt.Errorf("count message into bundle: %w", err)
	}
	return bundle.ID, created, nil
}

func (s *EnqueueService) archiveInput(input domain.NewOutgoingMessage, now time.Time) archivedomain.ArchivedMessageInput {
	var reason *core.BusinessReason
	if input.BusinessReason.Valid() {
		br := input.BusinessReason
		reason = &br
	}
	return archivedomain.ArchivedMessageInput{
		MessageID:          input.ExternalID,
		DocumentType:       input.DocumentType,
		SenderNumber:       input.SenderNumber,
		SenderRole:         input.SenderRole,
		ReceiverNumber:     input.DocumentReceiverNumber,
		ReceiverRole:       input.DocumentReceiverRole,
		BusinessReason:     reason,
		CreatedAt:          now,
		ArchiveType:        archivedomain.ArchiveTypeOutgoing,
		RelatedToMessageID: input.RelatedToMessageID,
		MeteringPointID:    input.MeteringPointID,
	}
}
