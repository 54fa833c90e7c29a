package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/enerhub/edi_services/internal/outbox_service/domain"
	"github.com/enerhub/edi_services/internal/outbox_service/repository"
)

// DelegationService registers mailbox delegations. Registration is
// append-only; corrections and revocations are expressed as new rows with a
// higher sequence number.
type DelegationService struct {
	db     repository.Querier
	repo   repository.DelegationRepository
	logger *slog.Logger
}

func NewDelegationService(db repository.Querier, repo repository.DelegationRepository, logger *slog.Logger) *DelegationService {
	return &DelegationService{
		db:     db,
		repo:   repo,
		logger: logger.With("service", "delegation"),
	}
}

// RegisterDelegation validates and persists a delegation, returning its id.
func (s *DelegationService) RegisterDelegation(ctx context.Context, input domain.NewDelegation) (uuid.UUID, error) {
	if err := input.Validate(); err != nil {
		return uuid.Nil, err
	}

	delegation := &domain.Delegation{
		ID:                uuid.New(),
		SequenceNumber:    input.SequenceNumber,
		ProcessType:       input.ProcessType,
		GridArea:          input.GridArea,
		DelegatedByNumber: input.DelegatedByNumber,
		DelegatedByRole:   input.DelegatedByRole,
		DelegatedToNumber: input.DelegatedToNumber,
		DelegatedToRole:   input.DelegatedToRole,
		StartsAt:          input.StartsAt.UTC(),
		StopsAt:           input.StopsAt.UTC(),
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, s.db, delegation); err != nil {
		return uuid.Nil, fmt.Errorf("create delegation: %w", err)
	}

	s.logger.InfoContext(ctx, "Delegation registered",
		"delegation_id", delegation.ID,
		"delegated_by", delegation.DelegatedByNumber,
		"delegated_to", delegation.DelegatedToNumber,
		"grid_area", delegation.GridArea,
		"process_type", delegation.ProcessType,
		"sequence_number", delegation.SequenceNumber)
	return delegation.ID, nil
}
