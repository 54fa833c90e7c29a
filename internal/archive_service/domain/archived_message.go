package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	core "github.com/enerhub/edi_services/internal/core_domain"
)

// ArchiveType classifies an archived message by direction.
type ArchiveType string

const (
	ArchiveTypeIncoming ArchiveType = "Incoming"
	ArchiveTypeOutgoing ArchiveType = "Outgoing"
)

func (t ArchiveType) Valid() bool {
	return t == ArchiveTypeIncoming || t == ArchiveTypeOutgoing
}

func (t ArchiveType) String() string { return string(t) }

// ArchivedMessage is the immutable audit record of one exchanged message.
// The business MessageID is not required to be unique; retries and role
// variants legitimately repeat it. RecordID reflects insertion order and is
// strictly increasing, which makes it the canonical pagination tie-breaker.
type ArchivedMessage struct {
	ID       uuid.UUID
	RecordID int64
	// MessageID is the business message id carried inside the document.
	MessageID          string
	DocumentType       core.DocumentType
	SenderNumber       core.ActorNumber
	SenderRole         core.ActorRole
	ReceiverNumber     core.ActorNumber
	ReceiverRole       core.ActorRole
	BusinessReason     *core.BusinessReason
	CreatedAt          time.Time
	ArchiveType        ArchiveType
	RelatedToMessageID *string
	StoragePath        string
	MeteringPointID    *string
}

// ArchivedMessageInput is the input to Append.
type ArchivedMessageInput struct {
	MessageID          string
	DocumentType       core.DocumentType
	SenderNumber       core.ActorNumber
	SenderRole         core.ActorRole
	ReceiverNumber     core.ActorNumber
	ReceiverRole       core.ActorRole
	BusinessReason     *core.BusinessReason
	CreatedAt          time.Time
	ArchiveType        ArchiveType
	RelatedToMessageID *string
	// MeteringPointID routes the record to the metering-point partition.
	MeteringPointID *string
	// Document, when present, is uploaded to the computed storage path.
	Document []byte
}

func (in *ArchivedMessageInput) Validate() error {
	if in.MessageID == "" {
		return NewValidationError("messageId", "must not be empty")
	}
	if !in.DocumentType.Valid() {
		return NewValidationError("documentType", "unknown document type")
	}
	if in.SenderNumber == "" || in.ReceiverNumber == "" {
		return NewValidationError("actorNumber", "sender and receiver numbers must not be empty")
	}
	if !in.SenderRole.Valid() || !in.ReceiverRole.Valid() {
		return NewValidationError("actorRole", "unknown actor role")
	}
	if in.CreatedAt.IsZero() {
		return NewValidationError("createdAt", "must not be zero")
	}
	if !in.ArchiveType.Valid() {
		return NewValidationError("archiveType", "must be Incoming or Outgoing")
	}
	return nil
}

// counterpartNumber is the actor number the storage path is keyed on: the
// sender for incoming messages, the receiver for outgoing ones.
func (in *ArchivedMessageInput) counterpartNumber() core.ActorNumber {
	if in.ArchiveType == ArchiveTypeIncoming {
		return in.SenderNumber
	}
	return in.ReceiverNumber
}

// StoragePath computes the deterministic blob path for the record with the
// given id: {counterpart}/{yyyy}/{MM}/{dd}/{id with separators stripped}.
// Paths are never reused; a collision on upload is a fatal configuration
// error, not a retry case.
func (in *ArchivedMessageInput) StoragePath(id uuid.UUID) string {
	created := in.CreatedAt.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s",
		in.counterpartNumber(),
		created.Year(), int(created.Month()), created.Day(),
		strings.ReplaceAll(id.String(), "-", ""),
	)
}
