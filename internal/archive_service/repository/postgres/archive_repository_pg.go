package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/enerhub/edi_services/internal/archive_service/domain"
	"github.com/enerhub/edi_services/internal/archive_service/repository"
	core "github.com/enerhub/edi_services/internal/core_domain"
)

type pgArchiveRepository struct {
	logger *slog.Logger
}

// NewPgArchiveRepository creates the PostgreSQL archive repository.
func NewPgArchiveRepository(logger *slog.Logger) repository.ArchiveRepository {
	return &pgArchiveRepository{logger: logger.With("repository", "archive")}
}

const (
	generalTable       = "archived_messages"
	meteringPointTable = "metering_point_archived_messages"
)

// The metering-point partition stores the document type as a compact numeric
// code, which is why it is not sortable there.
var docTypeCodes = map[core.DocumentType]int16{
	core.DocTypeNotifyAggregatedMeasureData:        1,
	core.DocTypeNotifyWholesaleServices:            2,
	core.DocTypeNotifyValidatedMeasureData:         3,
	core.DocTypeRejectRequestAggregatedMeasureData: 4,
	core.DocTypeRejectRequestWholesaleSettlement:   5,
	core.DocTypeRejectRequestMeasurements:          6,
	core.DocTypeReminderOfMissingMeasureData:       7,
	core.DocTypeAcknowledgement:                    8,
}

var docTypesByCode = func() map[int16]core.DocumentType {
	m := make(map[int16]core.DocumentType, len(docTypeCodes))
	for dt, code := range docTypeCodes {
		m[code] = dt
	}
	return m
}()

func (r *pgArchiveRepository) Insert(ctx context.Context, q repository.Querier, msg *domain.ArchivedMessage) (int64, error) {
	var query string
	var reason *string
	if msg.BusinessReason != nil {
		s := msg.BusinessReason.String()
		reason = &s
	}
	args := []interface{}{
		msg.ID, msg.MessageID, msg.SenderNumber, msg.SenderRole,
		msg.ReceiverNumber, msg.ReceiverRole, reason,
		msg.CreatedAt, msg.ArchiveType, msg.RelatedToMessageID, msg.StoragePath,
	}
	if msg.MeteringPointID != nil {
		code, ok := docTypeCodes[msg.DocumentType]
		if !ok {
			return 0, fmt.Errorf("no numeric code for document type %q", msg.DocumentType)
		}
		query = `
			INSERT INTO ` + meteringPointTable + ` (
				id, message_id, sender_number, sender_role, receiver_number, receiver_role,
				business_reason, created_at, archive_type, related_to_message_id, storage_path,
				document_type_code, metering_point_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING record_id
		`
		args = append(args, code, *msg.MeteringPointID)
	} else {
		query = `
			INSERT INTO ` + generalTable + ` (
				id, message_id, sender_number, sender_role, receiver_number, receiver_role,
				business_reason, created_at, archive_type, related_to_message_id, storage_path,
				document_type
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING record_id
		`
		args = append(args, msg.DocumentType)
	}

	var recordID int64
	if err := q.QueryRow(ctx, query, args...).Scan(&recordID); err != nil {
		return 0, err
	}
	return recordID, nil
}

func (r *pgArchiveRepository) FindThreadRoot(ctx context.Context, q repository.Querier, messageID string, meteringPoint bool) (*string, error) {
	// Threads are flat: if the matched message carries a related id, that id
	// is the root; otherwise the message itself is the root. Record order
	// makes the lookup deterministic when the business id repeats. The
	// lookup runs against the same partition the search will page over.
	table := generalTable
	if meteringPoint {
		table = meteringPointTable
	}
	query := `
		SELECT message_id, related_to_message_id
		FROM ` + table + `
		WHERE message_id = $1
		ORDER BY record_id ASC
		LIMIT 1
	`
	var id string
	var relatedTo *string
	err := q.QueryRow(ctx, query, messageID).Scan(&id, &relatedTo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if relatedTo != nil {
		return relatedTo, nil
	}
	return &id, nil
}

// predicate builds the WHERE clauses shared by Search and Count.
func (r *pgArchiveRepository) predicate(criteria *domain.SearchCriteria,
	restriction domain.Restriction) (clauses []string, args []interface{}, err error) {

	mp := criteria.UsesMeteringPointPartition()
	next := func() string { return fmt.Sprintf("$%d", len(args)+1) }

	if criteria.ThreadRootID != nil {
		args = append(args, *criteria.ThreadRootID)
		ph := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(message_id = %s OR related_to_message_id = %s)", ph, ph))
	} else if criteria.MessageID != nil {
		clauses = append(clauses, "message_id = "+next())
		args = append(args, *criteria.MessageID)
	}
	if criteria.CreatedFrom != nil {
		clauses = append(clauses, "created_at >= "+next())
		args = append(args, criteria.CreatedFrom.UTC())
	}
	if criteria.CreatedTo != nil {
		clauses = append(clauses, "created_at < "+next())
		args = append(args, criteria.CreatedTo.UTC())
	}
	if criteria.SenderNumber != nil {
		clauses = append(clauses, "sender_number = "+next())
		args = append(args, *criteria.SenderNumber)
	}
	if criteria.SenderRole != nil {
		clauses = append(clauses, "sender_role = "+next())
		args = append(args, *criteria.SenderRole)
	}
	if criteria.ReceiverNumber != nil {
		clauses = append(clauses, "receiver_number = "+next())
		args = append(args, *criteria.ReceiverNumber)
	}
	if criteria.ReceiverRole != nil {
		clauses = append(clauses, "receiver_role = "+next())
		args = append(args, *criteria.ReceiverRole)
	}
	if len(criteria.DocumentTypes) > 0 {
		if mp {
			codes := make([]int16, 0, len(criteria.DocumentTypes))
			for _, dt := range criteria.DocumentTypes {
				code, ok := docTypeCodes[dt]
				if !ok {
					return nil, nil, fmt.Errorf("no numeric code for document type %q", dt)
				}
				codes = append(codes, code)
			}
			clauses = append(clauses, "document_type_code = ANY("+next()+")")
			args = append(args, codes)
		} else {
			types := make([]string, 0, len(criteria.DocumentTypes))
			for _, dt := range criteria.DocumentTypes {
				types = append(types, dt.String())
			}
			clauses = append(clauses, "document_type = ANY("+next()+")")
			args = append(args, types)
		}
	}
	if len(criteria.BusinessReasons) > 0 {
		reasons := make([]string, 0, len(criteria.BusinessReasons))
		for _, br := range criteria.BusinessReasons {
			reasons = append(reasons, br.String())
		}
		clauses = append(clauses, "business_reason = ANY("+next()+")")
		args = append(args, reasons)
	}
	if mp {
		clauses = append(clauses, "metering_point_id = "+next())
		args = append(args, *criteria.MeteringPointID)
	}
	if restriction.Kind == domain.RestrictionOwned {
		args = append(args, restriction.ActorNumber)
		ph := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(sender_number = %s OR receiver_number = %s)", ph, ph))
	}
	return clauses, args, nil
}

var sortColumns = map[domain.SortField]string{
	domain.SortByMessageID:      "message_id",
	domain.SortByCreatedAt:      "created_at",
	domain.SortBySenderNumber:   "sender_number",
	domain.SortByReceiverNumber: "receiver_number",
	domain.SortByDocumentType:   "document_type",
}

func (r *pgArchiveRepository) Search(ctx context.Context, q repository.Querier, criteria *domain.SearchCriteria,
	restriction domain.Restriction, page domain.Pagination) ([]*domain.ArchivedMessage, error) {

	mp := criteria.UsesMeteringPointPartition()
	sortCol, ok := sortColumns[page.Field]
	if !ok || (mp && page.Field == domain.SortByDocumentType) {
		return nil, fmt.Errorf("sort field %q not available for this query", page.Field)
	}

	clauses, args, err := r.predicate(criteria, restriction)
	if err != nil {
		return nil, err
	}

	// The total order is (sort field, direction) with record_id DESC as the
	// invariable tie-breaker. A backward page is fetched in reversed order
	// from the cursor and flipped back below so the caller always sees the
	// nominal display order.
	descending := page.Direction == domain.Descending
	fetchDescending := descending == page.Forward
	tieOrder := "DESC"
	if !page.Forward {
		tieOrder = "ASC"
	}

	if page.Cursor != nil {
		args = append(args, page.Cursor.SortValue.Arg())
		vPH := fmt.Sprintf("$%d", len(args))
		args = append(args, page.Cursor.RecordID)
		idPH := fmt.Sprintf("$%d", len(args))

		valueCmp := "<"
		if descending != page.Forward {
			valueCmp = ">"
		}
		idCmp := "<"
		if !page.Forward {
			idCmp = ">"
		}
		clauses = append(clauses, fmt.Sprintf("(%s %s %s OR (%s = %s AND record_id %s %s))",
			sortCol, valueCmp, vPH, sortCol, vPH, idCmp, idPH))
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	sortOrder := "ASC"
	if fetchDescending {
		sortOrder = "DESC"
	}

	table := generalTable
	docTypeCol := "document_type"
	mpCol := "NULL::text"
	if mp {
		table = meteringPointTable
		docTypeCol = "document_type_code::text"
		mpCol = "metering_point_id"
	}

	args = append(args, page.PageSize)
	query := fmt.Sprintf(`
		SELECT id, record_id, message_id, %s, sender_number, sender_role,
		       receiver_number, receiver_role, business_reason, created_at,
		       archive_type, related_to_message_id, storage_path, %s
		FROM %s
		%s
		ORDER BY %s %s, record_id %s
		LIMIT $%d
	`, docTypeCol, mpCol, table, where, sortCol, sortOrder, tieOrder, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.ArchivedMessage
	for rows.Next() {
		msg := &domain.ArchivedMessage{}
		var docType string
		var reason *string
		err := rows.Scan(
			&msg.ID, &msg.RecordID, &msg.MessageID, &docType,
			&msg.SenderNumber, &msg.SenderRole, &msg.ReceiverNumber, &msg.ReceiverRole,
			&reason, &msg.CreatedAt, &msg.ArchiveType,
			&msg.RelatedToMessageID, &msg.StoragePath, &msg.MeteringPointID,
		)
		if err != nil {
			return nil, err
		}
		if reason != nil {
			br := core.BusinessReason(*reason)
			msg.BusinessReason = &br
		}
		msg.DocumentType, err = decodeDocumentType(docType, mp)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if !page.Forward {
		reverse(messages)
	}
	return messages, nil
}

func (r *pgArchiveRepository) Count(ctx context.Context, q repository.Querier, criteria *domain.SearchCriteria,
	restriction domain.Restriction) (int, error) {

	clauses, args, err := r.predicate(criteria, restriction)
	if err != nil {
		return 0, err
	}
	table := generalTable
	if criteria.UsesMeteringPointPartition() {
		table = meteringPointTable
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", table, where)
	if err := q.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func decodeDocumentType(raw string, meteringPoint bool) (core.DocumentType, error) {
	if !meteringPoint {
		return core.DocumentType(raw), nil
	}
	var code int16
	if _, err := fmt.Sscanf(raw, "%d", &code); err != nil {
		return "", fmt.Errorf("malformed document type code %q: %w", raw, err)
	}
	dt, ok := docTypesByCode[code]
	if !ok {
		return "", fmt.Errorf("unknown document type code %d", code)
	}
	return dt, nil
}

func reverse(msgs []*domain.ArchivedMessage) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
