package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/enerhub/edi_services/internal/archive_service/app"
	archivedomain "github.com/enerhub/edi_services/internal/archive_service/domain"
	core "github.com/enerhub/edi_services/internal/core_domain"
	"github.com/enerhub/edi_services/internal/public_api_service/middleware"
)

// ArchiveHandler serves archive search for market parties and operators.
type ArchiveHandler struct {
	archive         *app.ArchiveService
	defaultPageSize int
	logger          *slog.Logger
}

func NewArchiveHandler(archive *app.ArchiveService, defaultPageSize int, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		archive:         archive,
		defaultPageSize: defaultPageSize,
		logger:          logger.With("handler", "archive"),
	}
}

// RegisterRoutes registers archive routes with the given router.
func (h *ArchiveHandler) RegisterRoutes(r chi.Router) {
	r.Post("/archive/search", h.handleSearch)
}

func (h *ArchiveHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		logger.WarnContext(ctx, "Archive search without authenticated actor")
		writeJSONError(w, "Actor not authenticated", http.StatusUnauthorized)
		return
	}

	var req ArchiveSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "Failed to decode archive search request", "error", err)
		writeJSONError(w, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	page, err := h.buildPagination(&req)
	if err != nil {
		logger.WarnContext(ctx, "Archive search pagination rejected", "error", err)
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	criteria := buildCriteria(&req)

	result, err := h.archive.Search(ctx, criteria, actor.Restriction, page)
	if err != nil {
		var validationErr *archivedomain.ValidationError
		if errors.As(err, &validationErr) {
			logger.WarnContext(ctx, "Archive search criteria rejected", "error", err)
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.ErrorContext(ctx, "Archive search failed", "error", err)
		writeJSONError(w, "Archive search failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, buildSearchResponse(result, page.Field))
}

// buildPagination translates the request's page block, applying the service
// default page size when the caller leaves it out.
func (h *ArchiveHandler) buildPagination(req *ArchiveSearchRequest) (archivedomain.Pagination, error) {
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = h.defaultPageSize
	}

	field := archivedomain.SortField(req.SortField)
	var cursor *archivedomain.Cursor
	if req.Cursor != nil {
		effective := field
		if effective == "" {
			effective = archivedomain.SortByCreatedAt
		}
		value := archivedomain.StringCursorValue(req.Cursor.SortValue)
		if effective.IsTimestamp() {
			ts, err := time.Parse(time.RFC3339Nano, req.Cursor.SortValue)
			if err != nil {
				return archivedomain.Pagination{}, archivedomain.NewValidationError(
					"cursor", "sort value must be an RFC 3339 timestamp for this sort field")
			}
			value = archivedomain.TimeCursorValue(ts)
		}
		cursor = &archivedomain.Cursor{SortValue: value, RecordID: req.Cursor.RecordID}
	}

	forward := true
	if req.NavigateForward != nil {
		forward = *req.NavigateForward
	}
	return archivedomain.NewPagination(pageSize, field,
		archivedomain.SortDirection(req.SortDirection), cursor, forward)
}

func buildCriteria(req *ArchiveSearchRequest) archivedomain.SearchCriteria {
	criteria := archivedomain.SearchCriteria{
		MessageID:       req.MessageID,
		IncludeRelated:  req.IncludeRelatedMessages,
		CreatedFrom:     req.CreatedFrom,
		CreatedTo:       req.CreatedTo,
		MeteringPointID: req.MeteringPointID,
	}
	if req.SenderNumber != nil {
		n := core.ActorNumber(*req.SenderNumber)
		criteria.SenderNumber = &n
	}
	if req.SenderRole != nil {
		r := core.ActorRole(*req.SenderRole)
		criteria.SenderRole = &r
	}
	if req.ReceiverNumber != nil {
		n := core.ActorNumber(*req.ReceiverNumber)
		criteria.ReceiverNumber = &n
	}
	if req.ReceiverRole != nil {
		r := core.ActorRole(*req.ReceiverRole)
		criteria.ReceiverRole = &r
	}
	for _, dt := range req.DocumentTypes {
		criteria.DocumentTypes = append(criteria.DocumentTypes, core.DocumentType(dt))
	}
	for _, br := range req.BusinessReasons {
		criteria.BusinessReasons = append(criteria.BusinessReasons, core.BusinessReason(br))
	}
	return criteria
}

func buildSearchResponse(result *archivedomain.SearchResult, field archivedomain.SortField) ArchiveSearchResponse {
	resp := ArchiveSearchResponse{
		Messages:   make([]ArchivedMessageDTO, 0, len(result.Messages)),
		TotalCount: result.TotalCount,
	}
	for _, msg := range result.Messages {
		dto := ArchivedMessageDTO{
			ID:                 msg.ID.String(),
			RecordID:           msg.RecordID,
			MessageID:          msg.MessageID,
			DocumentType:       msg.DocumentType.String(),
			SenderNumber:       string(msg.SenderNumber),
			SenderRole:         msg.SenderRole.String(),
			ReceiverNumber:     string(msg.ReceiverNumber),
			ReceiverRole:       msg.ReceiverRole.String(),
			CreatedAt:          msg.CreatedAt,
			ArchiveType:        msg.ArchiveType.String(),
			RelatedToMessageID: msg.RelatedToMessageID,
			MeteringPointID:    msg.MeteringPointID,
		}
		if msg.BusinessReason != nil {
			reason := msg.BusinessReason.String()
			dto.BusinessReason = &reason
		}
		resp.Messages = append(resp.Messages, dto)
	}
	if len(result.Messages) > 0 {
		resp.FirstCursor = cursorFor(result.Messages[0], field)
		resp.LastCursor = cursorFor(result.Messages[len(result.Messages)-1], field)
	}
	return resp
}

// cursorFor builds the page-edge cursor DTO a client feeds back to continue
// paging from this row.
func cursorFor(msg *archivedomain.ArchivedMessage, field archivedomain.SortField) *CursorDTO {
	var sortValue string
	switch field {
	case archivedomain.SortByMessageID:
		sortValue = msg.MessageID
	case archivedomain.SortBySenderNumber:
		sortValue = string(msg.SenderNumber)
	case archivedomain.SortByReceiverNumber:
		sortValue = string(msg.ReceiverNumber)
	case archivedomain.SortByDocumentType:
		sortValue = msg.DocumentType.String()
	default:
		sortValue = msg.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return &CursorDTO{SortValue: sortValue, RecordID: msg.RecordID}
}
