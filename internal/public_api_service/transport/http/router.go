// Package http is the public HTTP surface of the EDI hub: message intake,
// mailbox peek/dequeue, delegation administration and archive search.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/enerhub/edi_services/internal/public_api_service/middleware"
)

// RouterDeps are the handlers the router mounts.
type RouterDeps struct {
	Messages    *MessageHandler
	Peek        *PeekHandler
	Delegations *DelegationHandler
	Archive     *ArchiveHandler
}

// NewRouter assembles the service router. All /v1 routes require a bearer
// token; health and metrics do not.
func NewRouter(deps RouterDeps, jwtSecret string, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(PrometheusMetricsMiddleware)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"}) //nolint:errcheck
	})
	r.Handle("/metrics", promhttp.Handler())

	authMW := middleware.AuthMiddleware(jwtSecret, logger)
	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(authMW)
		deps.Messages.RegisterRoutes(v1)
		deps.Peek.RegisterRoutes(v1)
		deps.Delegations.RegisterRoutes(v1)
		deps.Archive.RegisterRoutes(v1)
	})

	return r
}
