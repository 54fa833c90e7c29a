package domain

import (
	"time"

	"github.com/google/uuid"

	core "github.com/enerhub/edi_services/internal/core_domain"
)

// Delegation is a time-windowed override of which actor owns a mailbox for a
// grid area and process type. Among delegations with the same delegator, grid
// area and process type, the one with the highest sequence number wins; a
// delegation with StartsAt == StopsAt is an always-false window used purely to
// supersede an earlier open-ended delegation.
type Delegation struct {
	ID                uuid.UUID
	SequenceNumber    int
	ProcessType       core.ProcessType
	GridArea          string
	DelegatedByNumber core.ActorNumber
	DelegatedByRole   core.ActorRole
	DelegatedToNumber core.ActorNumber
	DelegatedToRole   core.ActorRole
	StartsAt          time.Time
	StopsAt           time.Time
	CreatedAt         time.Time
}

// ActiveAt reports whether now falls inside the half-open [StartsAt, StopsAt)
// window. A zero-width window is never active.
func (d *Delegation) ActiveAt(now time.Time) bool {
	return !now.Before(d.StartsAt) && now.Before(d.StopsAt)
}

// DelegatedTo returns the delegation target actor.
func (d *Delegation) DelegatedTo() core.Actor {
	return core.Actor{Number: d.DelegatedToNumber, Role: d.DelegatedToRole}
}

// NewDelegation is the input for registering a delegation.
type NewDelegation struct {
	SequenceNumber    int
	ProcessType       core.ProcessType
	GridArea          string
	DelegatedByNumber core.ActorNumber
	DelegatedByRole   core.ActorRole
	DelegatedToNumber core.ActorNumber
	DelegatedToRole   core.ActorRole
	StartsAt          time.Time
	StopsAt           time.Time
}

// Validate checks the delegation input. StartsAt == StopsAt is legal (it is
// the tombstone form); StopsAt before StartsAt is not.
func (n *NewDelegation) Validate() error {
	if n.DelegatedByNumber == "" || n.DelegatedToNumber == "" {
		return NewValidationError("actorNumber", "must not be empty")
	}
	if !n.DelegatedByRole.Valid() || !n.DelegatedToRole.Valid() {
		return NewValidationError("actorRole", "unknown actor role")
	}
	if !n.ProcessType.Valid() {
		return NewValidationError("processType", "unknown process type")
	}
	if n.GridArea == "" {
		return NewValidationError("gridArea", "must not be empty")
	}
	if n.StartsAt.IsZero() || n.StopsAt.IsZero() {
		return NewValidationError("window", "starts_at and stops_at must be set")
	}
	if n.StopsAt.Before(n.StartsAt) {
		return NewValidationError("window", "stops_at must not be before starts_at")
	}
	return nil
}
