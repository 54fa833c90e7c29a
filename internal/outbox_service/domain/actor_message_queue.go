package domain

import (
	"time"

	"github.com/google/uuid"

	core "github.com/enerhub/edi_services/internal/core_domain"
)

// ActorMessageQueue is the mailbox of one actor-role pair. It is created
// lazily on the first enqueue to that actor and never deleted. At most one
// queue exists per (actor number, actor role); the queue row is the locking
// boundary for all bundle operations of the mailbox.
type ActorMessageQueue struct {
	ID          uuid.UUID
	ActorNumber core.ActorNumber
	ActorRole   core.ActorRole
	CreatedAt   time.Time
}

// MailboxReceiver applies the historical role-coercion rule: messages for a
// MeteredDataResponsible are delivered into the GridAccessProvider mailbox of
// the same actor number. The document-target receiver is not affected.
func MailboxReceiver(a core.Actor) core.Actor {
	if a.Role == core.RoleMeteredDataResponsible {
		return core.Actor{Number: a.Number, Role: core.RoleGridAccessProvider}
	}
	return a
}
