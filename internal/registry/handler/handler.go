package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vericred/internal/registry"
	"vericred/pkg/platform/httputil"
	"vericred/pkg/requestcontext"
)

// Service defines the interface for registry operations.
type Service interface {
	CreatePrimary(ctx context.Context, params registry.CreatePrimaryParams) (registry.PrimaryProfile, error)
	CreateSecondary(ctx context.Context, primaryNumber string) (registry.SecondaryProfile, error)
	GetPrimary(ctx context.Context, number string) (registry.PrimaryProfile, error)
	GetSecondary(ctx context.Context, number string) (registry.SecondaryProfile, error)
}

// Handler wires identity registry endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registry handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/identity/primary/{number}", h.HandleGetPrimary)
	r.Post("/identity/primary", h.HandleCreatePrimary)
	r.Get("/identity/secondary/{number}", h.HandleGetSecondary)
	r.Post("/identity/secondary", h.HandleCreateSecondary)
}

// HandleGetPrimary handles GET /identity/primary/{number} requests.
func (h *Handler) HandleGetPrimary(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPrimary(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromPrimary(p))
}

// HandleGetSecondary handles GET /identity/secondary/{number} requests.
func (h *Handler) HandleGetSecondary(w http.ResponseWriter, r *http.Request) {
	sp, err := h.service.GetSecondary(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromSecondary(sp))
}

// HandleCreatePrimary handles POST /identity/primary requests.
func (h *Handler) HandleCreatePrimary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreatePrimaryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.CreatePrimary(ctx, registry.CreatePrimaryParams{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "primary profile creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, fromPrimary(p))
}

// HandleCreateSecondary handles POST /identity/secondary requests.
func (h *Handler) HandleCreateSecondary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateSecondaryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sp, err := h.service.CreateSecondary(ctx, req.PrimaryNumber)
	if err != nil {
		h.logger.ErrorContext(ctx, "secondary profile creation failed",
			"request_id", requestID,
			"primary_number", req.PrimaryNumber,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, fromSecondary(sp))
}
