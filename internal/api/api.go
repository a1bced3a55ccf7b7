// Package api exposes the HTTP surface of the voxprep server.
//
// Two groups of endpoints are served:
//
//   - /api/vapi/* — interview generation: extract parameters from a raw
//     conversation transcript (or accept them directly) and persist a
//     generated question set. Responses use the {"success":…} envelope the
//     web client expects.
//   - /api/calls — live voice call sessions: create a controller bound to a
//     transport session, poll its state, and tear it down.
//
// Read-side endpoints under /api/interviews and the health/metrics probes
// round out the surface. All routes use [http.ServeMux] method patterns and
// are expected to sit behind the observe middleware.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxprep/voxprep/internal/health"
	"github.com/voxprep/voxprep/internal/interview/store"
	"github.com/voxprep/voxprep/internal/pipeline"
)

// Handler bundles the HTTP handlers with their collaborators.
type Handler struct {
	pipeline *pipeline.Pipeline
	store    store.Store
	sessions CallSessions
	health   *health.Handler
	logger   *slog.Logger
}

// New creates a Handler. The call session manager may be nil when the server
// runs without a voice transport; the /api/calls routes then answer 503.
// A nil logger falls back to [slog.Default].
func New(p *pipeline.Pipeline, st store.Store, sessions CallSessions, h *health.Handler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pipeline: p,
		store:    st,
		sessions: sessions,
		health:   h,
		logger:   logger,
	}
}

// Register adds all API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/vapi/extract-and-generate", h.ExtractAndGenerate)
	mux.HandleFunc("POST /api/vapi/generate", h.Generate)

	mux.HandleFunc("GET /api/interviews/{id}", h.GetInterview)
	mux.HandleFunc("GET /api/interviews", h.ListInterviews)

	mux.HandleFunc("POST /api/calls", h.CreateCall)
	mux.HandleFunc("GET /api/calls/{id}", h.GetCall)
	mux.HandleFunc("POST /api/calls/{id}/stop", h.StopCall)
	mux.HandleFunc("DELETE /api/calls/{id}", h.DeleteCall)

	mux.Handle("GET /metrics", promhttp.Handler())
	if h.health != nil {
		h.health.Register(mux)
	}
}

// envelope is the response shape of the generation and read-side endpoints.
type envelope struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	Interview  any    `json:"interview,omitempty"`
	Interviews any    `json:"interviews,omitempty"`
}

// writeJSON encodes v with the given status code. Encoding failures are
// logged; the status line has already been sent at that point.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "err", err)
	}
}

// writeFailure writes a {"success":false,"error":…} envelope.
func (h *Handler) writeFailure(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, envelope{Success: false, Error: msg})
}
