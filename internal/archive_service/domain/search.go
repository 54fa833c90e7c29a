package domain

import (
	"time"

	core "github.com/enerhub/edi_services/internal/core_domain"
)

// SortField is the archive search sort key. DocumentType is unavailable for
// metering-point queries, where the type is stored as a compact numeric code.
type SortField string

const (
	SortByMessageID      SortField = "MessageId"
	SortByCreatedAt      SortField = "CreatedAt"
	SortBySenderNumber   SortField = "SenderNumber"
	SortByReceiverNumber SortField = "ReceiverNumber"
	SortByDocumentType   SortField = "DocumentType"
)

func (f SortField) Valid() bool {
	switch f {
	case SortByMessageID, SortByCreatedAt, SortBySenderNumber,
		SortByReceiverNumber, SortByDocumentType:
		return true
	}
	return false
}

func (f SortField) String() string { return string(f) }

// IsTimestamp reports whether the field's cursor value is a timestamp rather
// than a string.
func (f SortField) IsTimestamp() bool { return f == SortByCreatedAt }

// SortDirection is the nominal display order of a page.
type SortDirection string

const (
	Ascending  SortDirection = "Ascending"
	Descending SortDirection = "Descending"
)

func (d SortDirection) Valid() bool { return d == Ascending || d == Descending }

// CursorValue is the sort-field value of a page-edge row, typed by the sort
// field's semantic type so timestamps never degrade to lossy string
// comparison.
type CursorValue struct {
	str *string
	ts  *time.Time
}

// StringCursorValue makes a cursor value for string-typed sort fields.
func StringCursorValue(s string) CursorValue {
	return CursorValue{str: &s}
}

// TimeCursorValue makes a cursor value for timestamp-typed sort fields.
func TimeCursorValue(t time.Time) CursorValue {
	u := t.UTC()
	return CursorValue{ts: &u}
}

// IsString reports whether the value is string-typed.
func (v CursorValue) IsString() bool { return v.str != nil }

// String returns the string value; valid only when IsString.
func (v CursorValue) StringValue() string {
	if v.str == nil {
		return ""
	}
	return *v.str
}

// Time returns the timestamp value; valid only when not IsString.
func (v CursorValue) TimeValue() time.Time {
	if v.ts == nil {
		return time.Time{}
	}
	return *v.ts
}

// Arg returns the value as a query argument.
func (v CursorValue) Arg() interface{} {
	if v.str != nil {
		return *v.str
	}
	if v.ts != nil {
		return *v.ts
	}
	return nil
}

// Cursor is the keyset position of a previously returned page edge.
type Cursor struct {
	SortValue CursorValue
	RecordID  int64
}

// Pagination describes one page request: page size, sort, an optional cursor
// and the navigation direction relative to it.
type Pagination struct {
	PageSize  int
	Field     SortField
	Direction SortDirection
	Cursor    *Cursor
	// Forward fetches rows strictly after the cursor in sort order; backward
	// fetches rows strictly before it. Backward pages are re-ordered before
	// being returned so display order always matches Direction.
	Forward bool
}

// NewPagination validates and constructs a page request. A non-positive page
// size fails here, before any query executes. Zero-valued field/direction
// default to CreatedAt Descending.
func NewPagination(pageSize int, field SortField, direction SortDirection, cursor *Cursor, forward bool) (Pagination, error) {
	if pageSize <= 0 {
		return Pagination{}, NewValidationError("pageSize", "must be a positive integer")
	}
	if field == "" {
		field = SortByCreatedAt
	}
	if !field.Valid() {
		return Pagination{}, NewValidationError("sortField", "unknown sort field")
	}
	if direction == "" {
		direction = Descending
	}
	if !direction.Valid() {
		return Pagination{}, NewValidationError("sortDirection", "must be Ascending or Descending")
	}
	if cursor != nil {
		if field.IsTimestamp() && cursor.SortValue.IsString() {
			return Pagination{}, NewValidationError("cursor", "sort value must be a timestamp for this sort field")
		}
		if !field.IsTimestamp() && !cursor.SortValue.IsString() {
			return Pagination{}, NewValidationError("cursor", "sort value must be a string for this sort field")
		}
	}
	return Pagination{
		PageSize:  pageSize,
		Field:     field,
		Direction: direction,
		Cursor:    cursor,
		Forward:   forward,
	}, nil
}

// RestrictionKind is the caller's archive visibility.
type RestrictionKind int

const (
	// RestrictionNone sees everything.
	RestrictionNone RestrictionKind = iota
	// RestrictionOwned sees only records where the requesting actor's number
	// equals the sender or receiver number.
	RestrictionOwned
)

// Restriction is the visibility restriction supplied by the actor identity
// provider for every search request.
type Restriction struct {
	Kind        RestrictionKind
	ActorNumber core.ActorNumber
}

// NoRestriction returns unrestricted visibility.
func NoRestriction() Restriction {
	return Restriction{Kind: RestrictionNone}
}

// OwnedBy returns visibility restricted to the given actor number.
func OwnedBy(number core.ActorNumber) Restriction {
	return Restriction{Kind: RestrictionOwned, ActorNumber: number}
}

// SearchCriteria are the archive filters. All are optional and AND-combined,
// except sender/receiver which are OR-combined under Owned visibility.
type SearchCriteria struct {
	MessageID *string
	// IncludeRelated expands the single-message-id filter to the message's
	// flat two-level thread: the root plus all direct responses.
	IncludeRelated bool
	// Creation period, half-open [From, To).
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	SenderNumber    *core.ActorNumber
	SenderRole      *core.ActorRole
	ReceiverNumber  *core.ActorNumber
	ReceiverRole    *core.ActorRole
	DocumentTypes   []core.DocumentType
	BusinessReasons []core.BusinessReason
	// MeteringPointID routes the query to the metering-point partition.
	MeteringPointID *string

	// ThreadRootID is set internally after thread-root resolution; callers
	// leave it empty.
	ThreadRootID *string
}

// UsesMeteringPointPartition reports whether the query targets the
// metering-point archive partition.
func (c *SearchCriteria) UsesMeteringPointPartition() bool {
	return c.MeteringPointID != nil
}

// Validate rejects criteria/pagination combinations that can never execute.
func (c *SearchCriteria) Validate(p Pagination) error {
	if c.UsesMeteringPointPartition() && p.Field == SortByDocumentType {
		return NewValidationError("sortField", "DocumentType is not sortable for metering point queries")
	}
	if c.IncludeRelated && c.MessageID == nil {
		return NewValidationError("includeRelatedMessages", "requires a message id filter")
	}
	return nil
}

// SearchResult is one page of archive search results plus the total match
// count under the same filter predicate.
type SearchResult struct {
	Messages   []*ArchivedMessage
	TotalCount int
}
