package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	core "github.com/enerhub/edi_services/internal/core_domain"
	"github.com/enerhub/edi_services/internal/outbox_service/app"
	"github.com/enerhub/edi_services/internal/public_api_service/middleware"
)

// PeekHandler serves mailbox consumption for market parties.
type PeekHandler struct {
	peekDequeue *app.PeekDequeueService
	logger      *slog.Logger
}

func NewPeekHandler(peekDequeue *app.PeekDequeueService, logger *slog.Logger) *PeekHandler {
	return &PeekHandler{
		peekDequeue: peekDequeue,
		logger:      logger.With("handler", "peek"),
	}
}

// RegisterRoutes registers peek and dequeue routes with the given router.
func (h *PeekHandler) RegisterRoutes(r chi.Router) {
	r.Get("/peek/{category}", h.handlePeek)
	r.Delete("/dequeue/{messageID}", h.handleDequeue)
}

func (h *PeekHandler) handlePeek(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		logger.WarnContext(ctx, "Peek without authenticated actor")
		writeJSONError(w, "Actor not authenticated", http.StatusUnauthorized)
		return
	}

	category, err := core.ParseMessageCategory(chi.URLParam(r, "category"))
	if err != nil {
		logger.WarnContext(ctx, "Peek of unknown category", "category", chi.URLParam(r, "category"))
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	format := core.FormatCIMJson
	if raw := r.URL.Query().Get("format"); raw != "" {
		format, err = core.ParseDocumentFormat(raw)
		if err != nil {
			logger.WarnContext(ctx, "Peek with unknown format", "format", raw)
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	result, err := h.peekDequeue.Peek(ctx, actor.Actor(), category, format)
	if err != nil {
		logger.ErrorContext(ctx, "Peek failed", "error", err, "actor", actor.Actor().String())
		writeJSONError(w, "Peek failed", http.StatusInternalServerError)
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Message-Id", result.MessageID.String())
	w.Header().Set("Document-Type", result.DocumentType.String())
	w.WriteHeader(http.StatusOK)
	w.Write(result.Document) //nolint:errcheck // response already committed
}

func (h *PeekHandler) handleDequeue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		logger.WarnContext(ctx, "Dequeue without authenticated actor")
		writeJSONError(w, "Actor not authenticated", http.StatusUnauthorized)
		return
	}

	messageID, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		logger.WarnContext(ctx, "Dequeue with malformed message id", "message_id", chi.URLParam(r, "messageID"))
		writeJSONError(w, "Invalid message id format", http.StatusBadRequest)
		return
	}

	ok, err = h.peekDequeue.Dequeue(ctx, actor.Actor(), messageID)
	if err != nil {
		logger.ErrorContext(ctx, "Dequeue failed", "error", err, "message_id", messageID)
		writeJSONError(w, "Dequeue failed", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
	}
	writeJSON(w, status, DequeueResponse{Success: ok})
}
