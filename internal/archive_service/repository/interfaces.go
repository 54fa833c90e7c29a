package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/enerhub/edi_services/internal/archive_service/domain"
)

// Querier is the common interface of pgxpool.Pool and pgx.Tx so repository
// methods can run inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// ArchiveRepository persists and searches archived messages across the two
// physical partitions (general and metering-point). Records are append-only;
// there are no update or delete methods.
type ArchiveRepository interface {
	// Insert appends the record to its partition and returns the assigned
	// monotonically increasing record id.
	Insert(ctx context.Context, q Querier, msg *domain.ArchivedMessage) (int64, error)
	// Search returns one keyset page in display order (backward pages are
	// re-ordered before being returned).
	Search(ctx context.Context, q Querier, criteria *domain.SearchCriteria,
		restriction domain.Restriction, page domain.Pagination) ([]*domain.ArchivedMessage, error)
	// Count returns the total number of rows matching the same predicate
	// Search pages over.
	Count(ctx context.Context, q Querier, criteria *domain.SearchCriteria,
		restriction domain.Restriction) (int, error)
	// FindThreadRoot resolves the thread root id for a business message id:
	// the message's relatedToMessageId when present, otherwise the id itself.
	// meteringPoint selects the partition to resolve against; it must match
	// the partition the subsequent Search pages over. Returns nil when no
	// such message is archived there.
	FindThreadRoot(ctx context.Context, q Querier, messageID string, meteringPoint bool) (*string, error)
}
