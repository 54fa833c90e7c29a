package domain

import (
	"time"

	"github.com/google/uuid"

	core "github.com/enerhub/edi_services/internal/core_domain"
)

// IdempotencyKey is the uniqueness tuple preventing duplicate delivery. It is
// enforced as a unique index on the outgoing_messages table; the storage layer
// is the ultimate arbiter of "is this a duplicate".
type IdempotencyKey struct {
	ReceiverNumber core.ActorNumber
	ReceiverRole   core.ActorRole
	ExternalID     string
	PeriodStart    time.Time
}

// OutgoingMessage is a computed market document on its way to a mailbox. It is
// assigned to exactly one bundle at creation and never reassigned.
type OutgoingMessage struct {
	ID uuid.UUID
	// Receiver is the mailbox target, after role coercion and delegation.
	ReceiverNumber core.ActorNumber
	ReceiverRole   core.ActorRole
	// DocumentReceiver is the pre-delegation receiver that is always shown
	// inside the rendered document.
	DocumentReceiverNumber core.ActorNumber
	DocumentReceiverRole   core.ActorRole
	SenderNumber           core.ActorNumber
	SenderRole             core.ActorRole
	DocumentType           core.DocumentType
	BusinessReason         core.BusinessReason
	ProcessType            core.ProcessType
	GridArea               string
	ExternalID             string
	PeriodStart            time.Time
	RelatedToMessageID     *string
	FileStoragePath        string
	BundleID               *uuid.UUID
	CreatedAt              time.Time
}

// IdempotencyKey returns the message's uniqueness tuple. The tuple is keyed on
// the document-target receiver so retries dedupe identically no matter how
// delegation resolves at the time of the retry.
func (m *OutgoingMessage) IdempotencyKey() IdempotencyKey {
	return IdempotencyKey{
		ReceiverNumber: m.DocumentReceiverNumber,
		ReceiverRole:   m.DocumentReceiverRole,
		ExternalID:     m.ExternalID,
		PeriodStart:    m.PeriodStart,
	}
}

// NewOutgoingMessage is the input to Enqueue.
type NewOutgoingMessage struct {
	DocumentReceiverNumber core.ActorNumber
	DocumentReceiverRole   core.ActorRole
	SenderNumber           core.ActorNumber
	SenderRole             core.ActorRole
	DocumentType           core.DocumentType
	BusinessReason         core.BusinessReason
	ProcessType            core.ProcessType
	GridArea               string
	ExternalID             string
	PeriodStart            time.Time
	RelatedToMessageID     *string
	FileStoragePath        string
	// MeteringPointID routes the audit record of measurement documents to the
	// metering-point archive partition.
	MeteringPointID *string
}

// Validate checks the idempotency tuple and enum fields. Violations surface as
// ValidationError and are never retried.
func (n *NewOutgoingMessage) Validate() error {
	if n.DocumentReceiverNumber == "" {
		return NewValidationError("receiverNumber", "must not be empty")
	}
	if !n.DocumentReceiverRole.Valid() {
		return NewValidationError("receiverRole", "unknown actor role")
	}
	if n.SenderNumber == "" {
		return NewValidationError("senderNumber", "must not be empty")
	}
	if !n.SenderRole.Valid() {
		return NewValidationError("senderRole", "unknown actor role")
	}
	if !n.DocumentType.Valid() {
		return NewValidationError("documentType", "unknown document type")
	}
	if !n.BusinessReason.Valid() {
		return NewValidationError("businessReason", "unknown business reason")
	}
	if !n.ProcessType.Valid() {
		return NewValidationError("processType", "unknown process type")
	}
	if n.ExternalID == "" {
		return NewValidationError("externalId", "must not be empty")
	}
	if n.PeriodStart.IsZero() {
		return NewValidationError("periodStart", "must not be zero")
	}
	return nil
}

// Key returns the idempotency tuple of the input.
func (n *NewOutgoingMessage) Key() IdempotencyKey {
	return IdempotencyKey{
		ReceiverNumber: n.DocumentReceiverNumber,
		ReceiverRole:   n.DocumentReceiverRole,
		ExternalID:     n.ExternalID,
		PeriodStart:    n.PeriodStart,
	}
}

// Suppressed reports whether the message must be kept out of the mailbox.
// Balance responsible parties receive no wholesale-fixing or correction
// documents; such messages are archived but never enqueued.
func (n *NewOutgoingMessage) Suppressed() bool {
	if n.DocumentReceiverRole != core.RoleBalanceResponsibleParty {
		return false
	}
	return n.BusinessReason == core.ReasonWholesaleFixing ||
		n.BusinessReason == core.ReasonCorrection
}
