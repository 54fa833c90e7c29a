package http

import (
	"time"
)

// GenericErrorResponse is the error body shared by all handlers.
type GenericErrorResponse struct {
	Error string `json:"error"`
}

// EnqueueMessageRequest is the DTO for POST /v1/messages.
type EnqueueMessageRequest struct {
	ReceiverNumber     string    `json:"receiver_number"`
	ReceiverRole       string    `json:"receiver_role"`
	SenderNumber       string    `json:"sender_number"`
	SenderRole         string    `json:"sender_role"`
	DocumentType       string    `json:"document_type"`
	BusinessReason     string    `json:"business_reason"`
	ProcessType        string    `json:"process_type"`
	GridArea           string    `json:"grid_area"`
	ExternalID         string    `json:"external_id"`
	PeriodStart        time.Time `json:"period_start"`
	RelatedToMessageID *string   `json:"related_to_message_id,omitempty"`
	FileStoragePath    string    `json:"file_storage_path"`
	MeteringPointID    *string   `json:"metering_point_id,omitempty"`
}

// EnqueueMessageResponse is the DTO returned from POST /v1/messages.
type EnqueueMessageResponse struct {
	MessageID string `json:"message_id"`
}

// DequeueResponse is the DTO returned from DELETE /v1/dequeue/{messageID}.
type DequeueResponse struct {
	Success bool `json:"success"`
}

// RegisterDelegationRequest is the DTO for POST /v1/delegations.
type RegisterDelegationRequest struct {
	SequenceNumber    int       `json:"sequence_number"`
	ProcessType       string    `json:"process_type"`
	GridArea          string    `json:"grid_area"`
	DelegatedByNumber string    `json:"delegated_by_number"`
	DelegatedByRole   string    `json:"delegated_by_role"`
	DelegatedToNumber string    `json:"delegated_to_number"`
	DelegatedToRole   string    `json:"delegated_to_role"`
	StartsAt          time.Time `json:"starts_at"`
	StopsAt           time.Time `json:"stops_at"`
}

// RegisterDelegationResponse is the DTO returned from POST /v1/delegations.
type RegisterDelegationResponse struct {
	DelegationID string `json:"delegation_id"`
}

// CursorDTO is a keyset page edge. SortValue is the raw sort-field value of
// the edge row; timestamp sort fields carry it in RFC 3339 form.
type CursorDTO struct {
	SortValue string `json:"sort_value"`
	RecordID  int64  `json:"record_id"`
}

// ArchiveSearchRequest is the DTO for POST /v1/archive/search.
type ArchiveSearchRequest struct {
	MessageID              *string    `json:"message_id,omitempty"`
	IncludeRelatedMessages bool       `json:"include_related_messages,omitempty"`
	CreatedFrom            *time.Time `json:"created_from,omitempty"`
	CreatedTo              *time.Time `json:"created_to,omitempty"`
	SenderNumber           *string    `json:"sender_number,omitempty"`
	SenderRole             *string    `json:"sender_role,omitempty"`
	ReceiverNumber         *string    `json:"receiver_number,omitempty"`
	ReceiverRole           *string    `json:"receiver_role,omitempty"`
	DocumentTypes          []string   `json:"document_types,omitempty"`
	BusinessReasons        []string   `json:"business_reasons,omitempty"`
	MeteringPointID        *string    `json:"metering_point_id,omitempty"`

	PageSize      int        `json:"page_size,omitempty"`
	SortField     string     `json:"sort_field,omitempty"`
	SortDirection string     `json:"sort_direction,omitempty"`
	Cursor        *CursorDTO `json:"cursor,omitempty"`
	// NavigateForward moves away from the first page relative to the cursor;
	// false navigates back toward it. Ignored without a cursor.
	NavigateForward *bool `json:"navigate_forward,omitempty"`
}

// ArchivedMessageDTO is one archive search hit.
type ArchivedMessageDTO struct {
	ID                 string    `json:"id"`
	RecordID           int64     `json:"record_id"`
	MessageID          string    `json:"message_id"`
	DocumentType       string    `json:"document_type"`
	SenderNumber       string    `json:"sender_number"`
	SenderRole         string    `json:"sender_role"`
	ReceiverNumber     string    `json:"receiver_number"`
	ReceiverRole       string    `json:"receiver_role"`
	BusinessReason     *string   `json:"business_reason,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	ArchiveType        string    `json:"archive_type"`
	RelatedToMessageID *string   `json:"related_to_message_id,omitempty"`
	MeteringPointID    *string   `json:"metering_point_id,omitempty"`
}

// ArchiveSearchResponse is one page of archive search results. The cursors
// are the page edges to feed back as ArchiveSearchRequest.Cursor.
type ArchiveSearchResponse struct {
	Messages    []ArchivedMessageDTO `json:"messages"`
	TotalCount  int                  `json:"total_count"`
	FirstCursor *CursorDTO           `json:"first_cursor,omitempty"`
	LastCursor  *CursorDTO           `json:"last_cursor,omitempty"`
}
