package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	core "github.com/enerhub/edi_services/internal/core_domain"
	"github.com/enerhub/edi_services/internal/outbox_service/domain"
	"github.com/enerhub/edi_services/internal/outbox_service/repository"
)

// DelegationResolver resolves the actual mailbox owner for a nominal
// recipient at a point in time.
type DelegationResolver struct {
	repo   repository.DelegationRepository
	logger *slog.Logger
}

// NewDelegationResolver creates a resolver over the delegation repository.
func NewDelegationResolver(repo repository.DelegationRepository, logger *slog.Logger) *DelegationResolver {
	return &DelegationResolver{repo: repo, logger: logger.With("service", "delegation_resolver")}
}

// Resolve returns the mailbox owner for the nominal actor: the target of the
// highest-sequence delegation matching (actor, grid area, process type) whose
// window contains now, or the nominal actor itself when no active delegation
// exists. Two delegations sharing the highest sequence number are undefined
// input and surface as ErrAmbiguousDelegation.
func (r *DelegationResolver) Resolve(ctx context.Context, q repository.Querier,
	nominal core.Actor, gridArea string, processType core.ProcessType,
	now time.Time) (core.Actor, error) {

	delegations, err := r.repo.FindByDelegator(ctx, q, nominal, gridArea, processType)
	if err != nil {
		return core.Actor{}, fmt.Errorf("find delegations: %w", err)
	}
	if len(delegations) == 0 {
		return nominal, nil
	}

	// FindByDelegator returns newest sequence number first.
	best := delegations[0]
	if len(delegations) > 1 && delegations[1].SequenceNumber == best.SequenceNumber {
		return core.Actor{}, fmt.Errorf("%w: delegator=%s grid_area=%s process=%s sequence=%d",
			domain.ErrAmbiguousDelegation, nominal, gridArea, processType, best.SequenceNumber)
	}

	if !best.ActiveAt(now) {
		return nominal, nil
	}

	r.logger.DebugContext(ctx, "Delegation applied",
		"delegated_by", nominal.String(), "delegated_to", best.DelegatedTo().String(),
		"grid_area", gridArea, "process_type", processType, "sequence", best.SequenceNumber)
	return best.DelegatedTo(), nil
}
