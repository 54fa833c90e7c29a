package domain

import (
	"time"

	"github.com/google/uuid"

	core "github.com/enerhub/edi_services/internal/core_domain"
)

// Bundle is a batch of same-type outgoing messages delivered to a mailbox as
// one unit. Lifecycle: accumulating -> closed -> peeked -> dequeued. The
// closed/peeked/dequeued timestamps are monotonic and nullable until reached;
// once closed a bundle is immutable except for the peek/dequeue stamps.
type Bundle struct {
	ID      uuid.UUID
	QueueID uuid.UUID
	// MessageID is the public opaque id a recipient sees and acknowledges.
	MessageID          uuid.UUID
	DocumentType       core.DocumentType
	BusinessReason     core.BusinessReason
	RelatedToMessageID *string
	MessageCount       int
	MaxMessageCount    int
	DocumentFormat     *core.DocumentFormat
	DocumentPath       *string
	CreatedAt          time.Time
	ClosedAt           *time.Time
	PeekedAt           *time.Time
	DequeuedAt         *time.Time
}

// NewBundle creates an accumulating bundle for the given grouping key.
func NewBundle(queueID uuid.UUID, documentType core.DocumentType,
	businessReason core.BusinessReason, relatedToMessageID *string,
	maxMessageCount int, now time.Time) *Bundle {

	return &Bundle{
		ID:                 uuid.New(),
		QueueID:            queueID,
		MessageID:          uuid.New(),
		DocumentType:       documentType,
		BusinessReason:     businessReason,
		RelatedToMessageID: relatedToMessageID,
		MaxMessageCount:    maxMessageCount,
		CreatedAt:          now.UTC(),
	}
}

// CanAccept reports whether the bundle still accepts messages: it must be
// accumulating and below its configured capacity.
func (b *Bundle) CanAccept() bool {
	return b.ClosedAt == nil && b.MessageCount < b.MaxMessageCount
}

// AddMessage records one message assignment and closes the bundle when it
// reaches capacity.
func (b *Bundle) AddMessage(now time.Time) error {
	if !b.CanAccept() {
		return ErrBundleClosed
	}
	b.MessageCount++
	if b.MessageCount >= b.MaxMessageCount {
		b.close(now)
	}
	return nil
}

// Close closes an accumulating bundle regardless of fill level. Closing an
// already closed bundle is a no-op.
func (b *Bundle) Close(now time.Time) {
	if b.ClosedAt == nil {
		b.close(now)
	}
}

func (b *Bundle) close(now time.Time) {
	t := now.UTC()
	b.ClosedAt = &t
}

// MarkPeeked stamps the first peek with the rendered document's location and
// format. Peeking is re-entrant: a second call is a no-op.
func (b *Bundle) MarkPeeked(now time.Time, format core.DocumentFormat, documentPath string) error {
	if b.ClosedAt == nil {
		return ErrBundleNotClosed
	}
	if b.PeekedAt != nil {
		return nil
	}
	t := now.UTC()
	b.PeekedAt = &t
	b.DocumentFormat = &format
	b.DocumentPath = &documentPath
	return nil
}

// MarkDequeued stamps the dequeue acknowledgement. It returns false when the
// bundle was never peeked or is already dequeued; that is an expected outcome,
// not an error.
func (b *Bundle) MarkDequeued(now time.Time) bool {
	if b.PeekedAt == nil || b.DequeuedAt != nil {
		return false
	}
	t := now.UTC()
	b.DequeuedAt = &t
	return true
}
