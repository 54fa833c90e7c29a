package postgres

import (
	"context"
	"log/slog"

	core "github.com/enerhub/edi_services/internal/core_domain"
	"github.com/enerhub/edi_services/internal/outbox_service/domain"
	"github.com/enerhub/edi_services/internal/outbox_service/repository"
	"github.com/enerhub/edi_services/internal/platform/database"
)

type pgDelegationRepository struct {
	logger *slog.Logger
}

// NewPgDelegationRepository creates the PostgreSQL delegation repository.
func NewPgDelegationRepository(logger *slog.Logger) repository.DelegationRepository {
	return &pgDelegationRepository{logger: logger.With("repository", "delegation")}
}

func (r *pgDelegationRepository) Create(ctx context.Context, q repository.Querier, delegation *domain.Delegation) error {
	query := `
		INSERT INTO delegations (
			id, sequence_number, process_type, grid_area,
			delegated_by_number, delegated_by_role, delegated_to_number, delegated_to_role,
			starts_at, stops_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := q.Exec(ctx, query,
		delegation.ID, delegation.SequenceNumber, delegation.ProcessType, delegation.GridArea,
		delegation.DelegatedByNumber, delegation.DelegatedByRole,
		delegation.DelegatedToNumber, delegation.DelegatedToRole,
		delegation.StartsAt, delegation.StopsAt, delegation.CreatedAt,
	)
	if err != nil {
		return database.MapSQLError(err)
	}
	return nil
}

func (r *pgDelegationRepository) FindByDelegator(ctx context.Context, q repository.Querier, delegatedBy core.Actor,
	gridArea string, processType core.ProcessType) ([]*domain.Delegation, error) {

	query := `
		SELECT id, sequence_number, process_type, grid_area,
		       delegated_by_number, delegated_by_role, delegated_to_number, delegated_to_role,
		       starts_at, stops_at, created_at
		FROM delegations
		WHERE delegated_by_number = $1 AND delegated_by_role = $2
		  AND grid_area = $3 AND process_type = $4
		ORDER BY sequence_number DESC
	`
	rows, err := q.Query(ctx, query, delegatedBy.Number, delegatedBy.Role, gridArea, processType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var delegations []*domain.Delegation
	for rows.Next() {
		d := &domain.Delegation{}
		err := rows.Scan(
			&d.ID, &d.SequenceNumber, &d.ProcessType, &d.GridArea,
			&d.DelegatedByNumber, &d.DelegatedByRole, &d.DelegatedToNumber, &d.DelegatedToRole,
			&d.StartsAt, &d.StopsAt, &d.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		delegations = append(delegations, d)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return delegations, nil
}
