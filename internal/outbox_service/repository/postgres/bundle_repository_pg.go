package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	core "github.com/enerhub/edi_services/internal/core_domain"
	"github.com/enerhub/edi_services/internal/outbox_service/domain"
	"github.com/enerhub/edi_services/internal/outbox_service/repository"
)

var ErrBundleNotFound = errors.New("bundle not found")

type pgBundleRepository struct {
	logger *slog.Logger
}

// NewPgBundleRepository creates the PostgreSQL bundle repository. All methods
// that mutate bundle state expect the caller to hold the mailbox row lock.
func NewPgBundleRepository(logger *slog.Logger) repository.BundleRepository {
	return &pgBundleRepository{logger: logger.With("repository", "bundle")}
}

const bundleColumns = `
	id, queue_id, message_id, document_type, business_reason, related_to_message_id,
	message_count, max_message_count, document_format, document_path,
	created_at, closed_at, peeked_at, dequeued_at
`

func (r *pgBundleRepository) Create(ctx context.Context, q repository.Querier, bundle *domain.Bundle) error {
	query := `
		INSERT INTO bundles (
			id, queue_id, message_id, document_type, business_reason, related_to_message_id,
			message_count, max_message_count, document_format, document_path,
			created_at, closed_at, peeked_at, dequeued_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	var format *string
	if bundle.DocumentFormat != nil {
		s := bundle.DocumentFormat.String()
		format = &s
	}
	_, err := q.Exec(ctx, query,
		bundle.ID, bundle.QueueID, bundle.MessageID, bundle.DocumentType, bundle.BusinessReason,
		bundle.RelatedToMessageID, bundle.MessageCount, bundle.MaxMessageCount,
		format, bundle.DocumentPath,
		bundle.CreatedAt, bundle.ClosedAt, bundle.PeekedAt, bundle.DequeuedAt,
	)
	return err
}

func (r *pgBundleRepository) FindOpenBundle(ctx context.Context, q repository.Querier, queueID uuid.UUID,
	documentType core.DocumentType, businessReason core.BusinessReason,
	relatedToMessageID *string) (*domain.Bundle, error) {

	query := `
		SELECT ` + bundleColumns + `
		FROM bundles
		WHERE queue_id = $1
		  AND document_type = $2
		  AND business_reason = $3
		  AND related_to_message_id IS NOT DISTINCT FROM $4
		  AND closed_at IS NULL
		  AND message_count < max_message_count
		ORDER BY created_at ASC
		LIMIT 1
	`
	return r.queryOne(ctx, q, query, queueID, documentType, businessReason, relatedToMessageID)
}

func (r *pgBundleRepository) AddMessage(ctx context.Context, q repository.Querier, bundleID uuid.UUID, now time.Time) error {
	// The mailbox lock serializes concurrent enqueues, so the capacity check
	// here cannot race; it guards against assignment to a swept bundle.
	query := `
		UPDATE bundles
		SET message_count = message_count + 1,
		    closed_at = CASE WHEN message_count + 1 >= max_message_count THEN $2 ELSE closed_at END
		WHERE id = $1 AND closed_at IS NULL AND message_count < max_message_count
	`
	tag, err := q.Exec(ctx, query, bundleID, now.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBundleClosed
	}
	return nil
}

func (r *pgBundleRepository) FindOldestClosed(ctx context.Context, q repository.Querier, queueID uuid.UUID,
	documentTypes []core.DocumentType) (*domain.Bundle, error) {

	if len(documentTypes) == 0 {
		return nil, fmt.Errorf("document type set must not be empty")
	}
	types := make([]string, 0, len(documentTypes))
	for _, dt := range documentTypes {
		types = append(types, dt.String())
	}
	query := `
		SELECT ` + bundleColumns + `
		FROM bundles
		WHERE queue_id = $1
		  AND document_type = ANY($2)
		  AND closed_at IS NOT NULL
		  AND dequeued_at IS NULL
		ORDER BY created_at ASC
		LIMIT 1
	`
	return r.queryOne(ctx, q, query, queueID, types)
}

func (r *pgBundleRepository) FindByMessageID(ctx context.Context, q repository.Querier, queueID uuid.UUID,
	messageID uuid.UUID) (*domain.Bundle, error) {

	query := `
		SELECT ` + bundleColumns + `
		FROM bundles
		WHERE queue_id = $1 AND message_id = $2
	`
	return r.queryOne(ctx, q, query, queueID, messageID)
}

func (r *pgBundleRepository) MarkPeeked(ctx context.Context, q repository.Querier, bundleID uuid.UUID,
	peekedAt time.Time, format core.DocumentFormat, documentPath string) error {

	query := `
		UPDATE bundles
		SET peeked_at = $2, document_format = $3, document_path = $4
		WHERE id = $1 AND closed_at IS NOT NULL AND peeked_at IS NULL
	`
	tag, err := q.Exec(ctx, query, bundleID, peekedAt.UTC(), format, documentPath)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBundleNotFound
	}
	return nil
}

func (r *pgBundleRepository) MarkDequeued(ctx context.Context, q repository.Querier, bundleID uuid.UUID, dequeuedAt time.Time) (bool, error) {
	query := `
		UPDATE bundles
		SET dequeued_at = $2
		WHERE id = $1 AND peeked_at IS NOT NULL AND dequeued_at IS NULL
	`
	tag, err := q.Exec(ctx, query, bundleID, dequeuedAt.UTC())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgBundleRepository) CloseBundlesOlderThan(ctx context.Context, q repository.Querier, cutoff, now time.Time) (int64, error) {
	query := `
		UPDATE bundles
		SET closed_at = $2
		WHERE closed_at IS NULL AND created_at < $1
	`
	tag, err := q.Exec(ctx, query, cutoff.UTC(), now.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *pgBundleRepository) queryOne(ctx context.Context, q repository.Querier, query string, args ...interface{}) (*domain.Bundle, error) {
	bundle := &domain.Bundle{}
	var format *string
	err := q.QueryRow(ctx, query, args...).Scan(
		&bundle.ID, &bundle.QueueID, &bundle.MessageID, &bundle.DocumentType, &bundle.BusinessReason,
		&bundle.RelatedToMessageID, &bundle.MessageCount, &bundle.MaxMessageCount,
		&format, &bundle.DocumentPath,
		&bundle.CreatedAt, &bundle.ClosedAt, &bundle.PeekedAt, &bundle.DequeuedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if format != nil {
		f := core.DocumentFormat(*format)
		bundle.DocumentFormat = &f
	}
	return bundle, nil
}
