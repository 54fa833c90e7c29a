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

// DelegationHandler serves mailbox delegation administration.
type DelegationHandler struct {
	delegations *app.DelegationService
	logger      *slog.Logger
}

func NewDelegationHandler(delegations *app.DelegationService, logger *slog.Logger) *DelegationHandler {
	return &DelegationHandler{
		delegations: delegations,
		logger:      logger.With("handler", "delegation"),
	}
}

// RegisterRoutes registers delegation routes with the given router.
func (h *DelegationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/delegations", h.handleRegisterDelegation)
}

func (h *DelegationHandler) handleRegisterDelegation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req RegisterDelegationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "Failed to decode delegation request", "error", err)
		writeJSONError(w, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	input := domain.NewDelegation{
		SequenceNumber:    req.SequenceNumber,
		ProcessType:       core.ProcessType(req.ProcessType),
		GridArea:          req.GridArea,
		DelegatedByNumber: core.ActorNumber(req.DelegatedByNumber),
		DelegatedByRole:   core.ActorRole(req.DelegatedByRole),
		DelegatedToNumber: core.ActorNumber(req.DelegatedToNumber),
		DelegatedToRole:   core.ActorRole(req.DelegatedToRole),
		StartsAt:          req.StartsAt,
		StopsAt:           req.StopsAt,
	}

	id, err := h.delegations.RegisterDelegation(ctx, input)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			logger.WarnContext(ctx, "Delegation request rejected", "error", err)
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.ErrorContext(ctx, "Failed to register delegation", "error", err)
		writeJSONError(w, "Failed to register delegation", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterDelegationResponse{DelegationID: id.String()})
}
