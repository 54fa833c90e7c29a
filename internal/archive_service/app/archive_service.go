package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/enerhub/edi_services/internal/archive_service/domain"
	"github.com/enerhub/edi_services/internal/archive_service/repository"
	"github.com/enerhub/edi_services/internal/platform/filestorage"
)

// ArchiveService implements the archive writer and the cursor-search engine.
type ArchiveService struct {
	db      repository.Querier
	repo    repository.ArchiveRepository
	storage filestorage.FileStorage
	logger  *slog.Logger
}

// NewArchiveService creates the archive service. db is the connection pool
// used for searches; Append runs on whatever querier the caller passes so it
// can join the caller's transaction.
func NewArchiveService(
	db repository.Querier,
	repo repository.ArchiveRepository,
	storage filestorage.FileStorage,
	logger *slog.Logger,
) *ArchiveService {
	return &ArchiveService{
		db:      db,
		repo:    repo,
		storage: storage,
		logger:  logger.With("service", "archive"),
	}
}

// Append writes one immutable audit record. It never checks for duplicates:
// the same business message id legitimately appears more than once. When the
// input carries document bytes they are uploaded to the computed storage
// path; a path collision is fatal and propagates unchanged.
func (s *ArchiveService) Append(ctx context.Context, q repository.Querier, input domain.ArchivedMessageInput) (*domain.ArchivedMessage, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	path := input.StoragePath(id)

	if input.Document != nil {
		if err := s.storage.Upload(ctx, path, input.Document); err != nil {
			if errors.Is(err, filestorage.ErrPathExists) {
				return nil, fmt.Errorf("%w: %s", domain.ErrStoragePathCollision, path)
			}
			return nil, fmt.Errorf("upload archived document: %w", err)
		}
	}

	msg := &domain.ArchivedMessage{
		ID:                 id,
		MessageID:          input.MessageID,
		DocumentType:       input.DocumentType,
		SenderNumber:       input.SenderNumber,
		SenderRole:         input.SenderRole,
		ReceiverNumber:     input.ReceiverNumber,
		ReceiverRole:       input.ReceiverRole,
		BusinessReason:     input.BusinessReason,
		CreatedAt:          input.CreatedAt.UTC(),
		ArchiveType:        input.ArchiveType,
		RelatedToMessageID: input.RelatedToMessageID,
		StoragePath:        path,
		MeteringPointID:    input.MeteringPointID,
	}

	recordID, err := s.repo.Insert(ctx, q, msg)
	if err != nil {
		return nil, fmt.Errorf("insert archived message: %w", err)
	}
	msg.RecordID = recordID

	partition := "general"
	if msg.MeteringPointID != nil {
		partition = "metering_point"
	}
	archiveAppendedCounter.WithLabelValues(partition, msg.ArchiveType.String()).Inc()

	s.logger.InfoContext(ctx, "Archived message",
		"archived_message_id", id, "record_id", recordID,
		"message_id", msg.MessageID, "archive_type", msg.ArchiveType)
	return msg, nil
}

// Search answers one filtered, keyset-paginated page plus the total match
// count. With IncludeRelated set and a single message id filter, the result
// is the message's flat thread: the root plus every direct response,
// regardless of whether the supplied id belongs to the root or a response.
func (s *ArchiveService) Search(ctx context.Context, criteria domain.SearchCriteria,
	restriction domain.Restriction, page domain.Pagination) (*domain.SearchResult, error) {

	if err := criteria.Validate(page); err != nil {
		return nil, err
	}

	partition := "general"
	if criteria.UsesMeteringPointPartition() {
		partition = "metering_point"
	}
	timer := prometheus.NewTimer(archiveSearchDurationHist.WithLabelValues(partition))
	defer timer.ObserveDuration()

	if criteria.IncludeRelated && criteria.MessageID != nil {
		root, err := s.repo.FindThreadRoot(ctx, s.db, *criteria.MessageID, criteria.UsesMeteringPointPartition())
		if err != nil {
			return nil, fmt.Errorf("resolve thread root: %w", err)
		}
		if root == nil {
			// Unknown message id: empty result, not an error.
			return &domain.SearchResult{TotalCount: 0}, nil
		}
		criteria.ThreadRootID = root
	}

	messages, err := s.repo.Search(ctx, s.db, &criteria, restriction, page)
	if err != nil {
		return nil, fmt.Errorf("search archive: %w", err)
	}
	total, err := s.repo.Count(ctx, s.db, &criteria, restriction)
	if err != nil {
		return nil, fmt.Errorf("count archive matches: %w", err)
	}

	return &domain.SearchResult{Messages: messages, TotalCount: total}, nil
}

// DefaultPagination builds the default first-page request: CreatedAt
// descending with the given page size.
func DefaultPagination(pageSize int) (domain.Pagination, error) {
	return domain.NewPagination(pageSize, domain.SortByCreatedAt, domain.Descending, nil, true)
}
