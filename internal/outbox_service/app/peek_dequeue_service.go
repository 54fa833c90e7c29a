package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	archivedomain "github.com/enerhub/edi_services/internal/archive_service/domain"
	core "github.com/enerhub/edi_services/internal/core_domain"
	"github.com/enerhub/edi_services/internal/outbox_service/domain"
	"github.com/enerhub/edi_services/internal/outbox_service/repository"
	"github.com/enerhub/edi_services/internal/platform/filestorage"
)

// Renderer turns a closed bundle's messages into a wire-format document. It
// is a pure function of the bundle content and format; failures propagate as
// rendering errors and are not retried here.
type Renderer interface {
	Render(ctx context.Context, bundle *domain.Bundle, messages []*domain.OutgoingMessage,
		format core.DocumentFormat) (data []byte, contentType string, err error)
}

// PeekResult is the outcome of a successful peek.
type PeekResult struct {
	MessageID    uuid.UUID
	DocumentType core.DocumentType
	Document     []byte
	ContentType  string
}

// PeekDequeueService serves mailbox consumption: peek renders and returns the
// oldest eligible closed bundle, dequeue acknowledges it.
type PeekDequeueService struct {
	db                  DBPool
	queues              repository.ActorMessageQueueRepository
	bundles             repository.BundleRepository
	messages            repository.OutgoingMessageRepository
	renderer            Renderer
	storage             filestorage.FileStorage
	archive             ArchiveWriter
	measurementsEnabled bool
	logger              *slog.Logger
}

// NewPeekDequeueService creates the peek/dequeue service. measurementsEnabled
// is the feature flag holding back measurement-data bundles from peek.
func NewPeekDequeueService(
	db DBPool,
	queues repository.ActorMessageQueueRepository,
	bundles repository.BundleRepository,
	messages repository.OutgoingMessageRepository,
	renderer Renderer,
	storage filestorage.FileStorage,
	archive ArchiveWriter,
	measurementsEnabled bool,
	logger *slog.Logger,
) *PeekDequeueService {
	return &PeekDequeueService{
		db:                  db,
		queues:              queues,
		bundles:             bundles,
		messages:            messages,
		renderer:            renderer,
		storage:             storage,
		archive:             archive,
		measurementsEnabled: measurementsEnabled,
		logger:              logger.With("service", "peek_dequeue"),
	}
}

// Peek returns the oldest closed bundle of the category for the actor's
// mailbox, or nil when nothing is eligible. The first peek renders the bundle,
// archives the rendered document and stamps peekedAt; repeated peeks before
// dequeue return the same document without re-rendering.
func (s *PeekDequeueService) Peek(ctx context.Context, actor core.Actor,
	category core.MessageCategory, format core.DocumentFormat) (*PeekResult, error) {

	if category == core.CategoryMeasureData && !s.measurementsEnabled {
		s.logger.DebugContext(ctx, "Peek of measurement data disabled by feature flag", "actor", actor.String())
		return nil, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin peek tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	queue, err := s.queues.GetForUpdate(ctx, tx, actor)
	if err != nil {
		return nil, fmt.Errorf("lock mailbox: %w", err)
	}
	if queue == nil {
		peekDurationHist.WithLabelValues("empty").Observe(0)
		return nil, nil
	}

	bundle, err := s.bundles.FindOldestClosed(ctx, tx, queue.ID, category.DocumentTypes())
	if err != nil {
		return nil, fmt.Errorf("find closed bundle: %w", err)
	}
	if bundle == nil {
		peekDurationHist.WithLabelValues("empty").Observe(0)
		return nil, nil
	}

	if bundle.PeekedAt != nil {
		// Already rendered; serve the stored document unchanged.
		timer := prometheus.NewTimer(peekDurationHist.WithLabelValues("repeat"))
		defer timer.ObserveDuration()

		data, err := s.storage.Download(ctx, *bundle.DocumentPath)
		if err != nil {
			return nil, fmt.Errorf("download peeked document: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit repeat peek: %w", err)
		}
		return &PeekResult{
			MessageID:    bundle.MessageID,
			DocumentType: bundle.DocumentType,
			Document:     data,
			ContentType:  ContentTypeFor(*bundle.DocumentFormat),
		}, nil
	}

	timer := prometheus.NewTimer(peekDurationHist.WithLabelValues("rendered"))
	defer timer.ObserveDuration()

	msgs, err := s.messages.ListByBundle(ctx, tx, bundle.ID)
	if err != nil {
		return nil, fmt.Errorf("load bundle messages: %w", err)
	}
	data, contentType, err := s.renderer.Render(ctx, bundle, msgs, format)
	if err != nil {
		return nil, fmt.Errorf("render bundle %s: %w", bundle.ID, err)
	}

	now := time.Now().UTC()
	arch, err := s.archive.Append(ctx, tx, archivedomain.ArchivedMessageInput{
		MessageID:      bundle.MessageID.String(),
		DocumentType:   bundle.DocumentType,
		SenderNumber:   senderOf(msgs),
		SenderRole:     senderRoleOf(msgs),
		ReceiverNumber: queue.ActorNumber,
		ReceiverRole:   queue.ActorRole,
		BusinessReason: &bundle.BusinessReason,
		CreatedAt:      now,
		ArchiveType:    archivedomain.ArchiveTypeOutgoing,
		Document:       data,
	})
	if err != nil {
		return nil, fmt.Errorf("archive rendered bundle: %w", err)
	}

	if err := s.bundles.MarkPeeked(ctx, tx, bundle.ID, now, format, arch.StoragePath); err != nil {
		return nil, fmt.Errorf("stamp peeked bundle: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit peek: %w", err)
	}

	s.logger.InfoContext(ctx, "Bundle peeked",
		"bundle_id", bundle.ID, "bundle_message_id", bundle.MessageID,
		"actor", actor.String(), "format", format)
	return &PeekResult{
		MessageID:    bundle.MessageID,
		DocumentType: bundle.DocumentType,
		Document:     data,
		ContentType:  contentType,
	}, nil
}

// Dequeue acknowledges the bundle with the given public message id. It
// returns false, not an error, when the bundle does not exist, belongs to a
// different mailbox or is already dequeued.
func (s *PeekDequeueService) Dequeue(ctx context.Context, actor core.Actor, messageID uuid.UUID) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin dequeue tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	queue, err := s.queues.GetForUpdate(ctx, tx, actor)
	if err != nil {
		return false, fmt.Errorf("lock mailbox: %w", err)
	}
	if queue == nil {
		return false, nil
	}

	bundle, err := s.bundles.FindByMessageID(ctx, tx, queue.ID, messageID)
	if err != nil {
		return false, fmt.Errorf("find bundle: %w", err)
	}
	if bundle == nil {
		s.logger.InfoContext(ctx, "Dequeue of unknown bundle message id",
			"actor", actor.String(), "bundle_message_id", messageID)
		return false, nil
	}

	ok, err := s.bundles.MarkDequeued(ctx, tx, bundle.ID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("stamp dequeued bundle: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit dequeue: %w", err)
	}
	return ok, nil
}

// ContentTypeFor maps a document format to its HTTP content type.
func ContentTypeFor(format core.DocumentFormat) string {
	switch format {
	case core.FormatCIMJson:
		return "application/json"
	case core.FormatCIMXml:
		return "application/xml"
	case core.FormatEbix:
		return "application/octet-stream"
	}
	return "application/octet-stream"
}

func senderOf(msgs []*domain.OutgoingMessage) core.ActorNumber {
	if len(msgs) == 0 {
		return ""
	}
	return msgs[0].SenderNumber
}

func senderRoleOf(msgs []*domain.OutgoingMessage) core.ActorRole {
	if len(msgs) == 0 {
		return ""
	}
	return msgs[0].SenderRole
}
