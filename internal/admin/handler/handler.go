package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vericred/internal/admin"
	"vericred/pkg/platform/audit"
	"vericred/pkg/platform/httputil"
	"vericred/pkg/requestcontext"
)

// Service defines the interface for the operator dashboard.
type Service interface {
	Stats(ctx context.Context) (admin.Stats, error)
	Logs(ctx context.Context) ([]audit.Entry, error)
}

// Handler wires the dashboard endpoints to the admin service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an admin handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts admin endpoints on the router. The caller mounts this
// inside the JWT-guarded router group.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/stats", h.HandleStats)
	r.Get("/admin/logs", h.HandleLogs)
}

// StatsResponse is the HTTP response body for GET /admin/stats.
type StatsResponse struct {
	PrimaryProfiles   int `json:"primary_profiles"`
	SecondaryProfiles int `json:"secondary_profiles"`
	Entities          int `json:"entities"`
	Invoices          int `json:"invoices"`
	Evaluations       int `json:"evaluations"`
}

// LogEntry is one audit entry on the wire.
type LogEntry struct {
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleStats handles GET /admin/stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "stats collection failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StatsResponse{
		PrimaryProfiles:   stats.Primaries,
		SecondaryProfiles: stats.Secondaries,
		Entities:          stats.Entities,
		Invoices:          stats.Invoices,
		Evaluations:       stats.Evaluations,
	})
}

// HandleLogs handles GET /admin/logs requests.
func (h *Handler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.service.Logs(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]LogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, LogEntry{
			Actor:     e.Actor,
			Action:    e.Action,
			Entity:    e.Entity,
			EntityID:  e.EntityID,
			RequestID: e.RequestID,
			Timestamp: e.Timestamp,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
