package core_domain

import "fmt"

// ActorNumber is a market participant identifier (GLN or EIC code).
type ActorNumber string

func (n ActorNumber) String() string { return string(n) }

// ActorRole is the market role an actor acts in. The same legal entity can
// hold several roles, each with its own mailbox.
type ActorRole string

const (
	RoleEnergySupplier           ActorRole = "EnergySupplier"
	RoleGridAccessProvider       ActorRole = "GridAccessProvider"
	RoleMeteredDataResponsible   ActorRole = "MeteredDataResponsible"
	RoleBalanceResponsibleParty  ActorRole = "BalanceResponsibleParty"
	RoleMeteredDataAdministrator ActorRole = "MeteredDataAdministrator"
	RoleSystemOperator           ActorRole = "SystemOperator"
	RoleDelegated                ActorRole = "Delegated"
)

var actorRoles = map[ActorRole]struct{}{
	RoleEnergySupplier:           {},
	RoleGridAccessProvider:       {},
	RoleMeteredDataResponsible:   {},
	RoleBalanceResponsibleParty:  {},
	RoleMeteredDataAdministrator: {},
	RoleSystemOperator:           {},
	RoleDelegated:                {},
}

func (r ActorRole) Valid() bool {
	_, ok := actorRoles[r]
	return ok
}

func (r ActorRole) String() string { return string(r) }

// ParseActorRole validates and converts a string code to an ActorRole.
func ParseActorRole(s string) (ActorRole, error) {
	r := ActorRole(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown actor role %q", s)
	}
	return r, nil
}

// Actor identifies a market participant in a specific role.
type Actor struct {
	Number ActorNumber
	Role   ActorRole
}

func (a Actor) String() string {
	return fmt.Sprintf("%s/%s", a.Number, a.Role)
}
