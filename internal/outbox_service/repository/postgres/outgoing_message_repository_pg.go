package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/enerhub/edi_services/internal/outbox_service/domain"
	"github.com/enerhub/edi_services/internal/outbox_service/repository"
	"github.com/enerhub/edi_services/internal/platform/database"
)

var ErrOutgoingMessageNotFound = errors.New("outgoing message not found")

type pgOutgoingMessageRepository struct {
	logger *slog.Logger
}

// NewPgOutgoingMessageRepository creates the PostgreSQL outgoing message
// repository. The idempotency tuple is enforced by the unique index
// ux_outgoing_messages_idempotency; Create maps its violation to
// database.ErrUniqueViolation.
func NewPgOutgoingMessageRepository(logger *slog.Logger) repository.OutgoingMessageRepository {
	return &pgOutgoingMessageRepository{logger: logger.With("repository", "outgoing_message")}
}

const outgoingMessageColumns = `
	id, receiver_number, receiver_role, document_receiver_number, document_receiver_role,
	sender_number, sender_role, document_type, business_reason, process_type, grid_area,
	external_id, period_start, related_to_message_id, file_storage_path, bundle_id, created_at
`

func (r *pgOutgoingMessageRepository) Create(ctx context.Context, q repository.Querier, msg *domain.OutgoingMessage) error {
	query := `
		INSERT INTO outgoing_messages (
			id, receiver_number, receiver_role, document_receiver_number, document_receiver_role,
			sender_number, sender_role, document_type, business_reason, process_type, grid_area,
			external_id, period_start, related_to_message_id, file_storage_path, bundle_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := q.Exec(ctx, query,
		msg.ID, msg.ReceiverNumber, msg.ReceiverRole,
		msg.DocumentReceiverNumber, msg.DocumentReceiverRole,
		msg.SenderNumber, msg.SenderRole, msg.DocumentType, msg.BusinessReason,
		msg.ProcessType, msg.GridArea, msg.ExternalID, msg.PeriodStart,
		msg.RelatedToMessageID, msg.FileStoragePath, msg.BundleID, msg.CreatedAt,
	)
	if err != nil {
		return database.MapSQLError(err)
	}
	return nil
}

func (r *pgOutgoingMessageRepository) FindByIdempotencyKey(ctx context.Context, q repository.Querier, key domain.IdempotencyKey) (*domain.OutgoingMessage, error) {
	query := `
		SELECT ` + outgoingMessageColumns + `
		FROM outgoing_messages
		WHERE document_receiver_number = $1
		  AND document_receiver_role = $2
		  AND external_id = $3
		  AND period_start = $4
	`
	msg := &domain.OutgoingMessage{}
	err := q.QueryRow(ctx, query, key.ReceiverNumber, key.ReceiverRole, key.ExternalID, key.PeriodStart).Scan(
		&msg.ID, &msg.ReceiverNumber, &msg.ReceiverRole,
		&msg.DocumentReceiverNumber, &msg.DocumentReceiverRole,
		&msg.SenderNumber, &msg.SenderRole, &msg.DocumentType, &msg.BusinessReason,
		&msg.ProcessType, &msg.GridArea, &msg.ExternalID, &msg.PeriodStart,
		&msg.RelatedToMessageID, &msg.FileStoragePath, &msg.BundleID, &msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

func (r *pgOutgoingMessageRepository) AssignToBundle(ctx context.Context, q repository.Querier, messageID, bundleID uuid.UUID) error {
	// A message is assigned exactly once; re-assignment is a programming
	// error surfaced as not-found.
	query := `UPDATE outgoing_messages SET bundle_id = $2 WHERE id = $1 AND bundle_id IS NULL`
	tag, err := q.Exec(ctx, query, messageID, bundleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOutgoingMessageNotFound
	}
	return nil
}

func (r *pgOutgoingMessageRepository) ListByBundle(ctx context.Context, q repository.Querier, bundleID uuid.UUID) ([]*domain.OutgoingMessage, error) {
	query := `
		SELECT ` + outgoingMessageColumns + `
		FROM outgoing_messages
		WHERE bundle_id = $1
		ORDER BY created_at ASC
	`
	rows, err := q.Query(ctx, query, bundleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.OutgoingMessage
	for rows.Next() {
		msg := &domain.OutgoingMessage{}
		err := rows.Scan(
			&msg.ID, &msg.ReceiverNumber, &msg.ReceiverRole,
			&msg.DocumentReceiverNumber, &msg.DocumentReceiverRole,
			&msg.SenderNumber, &msg.SenderRole, &msg.DocumentType, &msg.BusinessReason,
			&msg.ProcessType, &msg.GridArea, &msg.ExternalID, &msg.PeriodStart,
			&msg.RelatedToMessageID, &msg.FileStoragePath, &msg.BundleID, &msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
