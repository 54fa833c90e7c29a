package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"

	core "github.com/enerhub/edi_services/internal/core_domain"
	"github.com/enerhub/edi_services/internal/outbox_service/app"
	"github.com/enerhub/edi_services/internal/outbox_service/domain"
)

// MessageHandler serves message intake for calculation and process engines.
type MessageHandler struct {
	enqueue *app.EnqueueService
	logger  *slog.Logger
}

func NewMessageHandler(enqueue *app.EnqueueService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		enqueue: enqueue,
		logger:  logger.With("handler", "message"),
	}
}

// RegisterRoutes registers message intake routes with the given router.
func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Post("/messages", h.handleEnqueueMessage)
}

func (h *MessageHandler) handleEnqueueMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req EnqueueMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "Failed to decode enqueue request", "error", err)
		writeJSONError(w, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	input := domain.NewOutgoingMessage{
		DocumentReceiverNumber: core.ActorNumber(req.ReceiverNumber),
		DocumentReceiverRole:   core.ActorRole(req.ReceiverRole),
		SenderNumber:           core.ActorNumber(req.SenderNumber),
		SenderRole:             core.ActorRole(req.SenderRole),
		DocumentType:           core.DocumentType(req.DocumentType),
		BusinessReason:         core.BusinessReason(req.BusinessReason),
		ProcessType:            core.ProcessType(req.ProcessType),
		GridArea:               req.GridArea,
		ExternalID:             req.ExternalID,
		PeriodStart:            req.PeriodStart,
		RelatedToMessageID:     req.RelatedToMessageID,
		FileStoragePath:        req.FileStoragePath,
		MeteringPointID:        req.MeteringPointID,
	}

	id, err := h.enqueue.Enqueue(ctx, input)
	if err != nil {
		var validationErr *domain.ValidationError
		switch {
		case errors.As(err, &validationErr):
			logger.WarnContext(ctx, "Enqueue request rejected", "error", err)
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrDuplicateIdempotencyKey):
			logger.WarnContext(ctx, "Enqueue conflicts with an in-flight duplicate",
				"external_id", req.ExternalID, "receiver_number", req.ReceiverNumber)
			writeJSONError(w, "A message with the same idempotency key is being processed", http.StatusConflict)
		case errors.Is(err, domain.ErrAmbiguousDelegation):
			logger.ErrorContext(ctx, "Delegation configuration is ambiguous",
				"grid_area", req.GridArea, "process_type", req.ProcessType)
			writeJSONError(w, "Mailbox delegation configuration is ambiguous", http.StatusConflict)
		default:
			logger.ErrorContext(ctx, "Failed to enqueue message", "error", err)
			writeJSONError(w, "Failed to enqueue message", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, EnqueueMessageResponse{MessageID: id.String()})
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body) //nolint:errcheck // response already committed
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, GenericErrorResponse{Error: message})
}
