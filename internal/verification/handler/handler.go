package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vericred/internal/verification"
	dErrors "vericred/pkg/domain-errors"
	"vericred/pkg/platform/httputil"
	"vericred/pkg/requestcontext"
)

// Service defines the interface for verification operations.
type Service interface {
	Evaluate(ctx context.Context, req verification.EvaluateRequest) (verification.Outcome, error)
}

// Handler wires the full-check endpoint to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verification/full-check", h.HandleFullCheck)
}

// FullCheckRequest is the HTTP request body for POST /verification/full-check.
type FullCheckRequest struct {
	PrimaryNumber   string `json:"primary_number"`
	SecondaryNumber string `json:"secondary_number"`
	Registration    string `json:"registration"`
}

// Validate validates and normalizes the request.
func (r *FullCheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.PrimaryNumber = strings.TrimSpace(r.PrimaryNumber)
	r.SecondaryNumber = strings.TrimSpace(r.SecondaryNumber)
	r.Registration = strings.TrimSpace(r.Registration)
	if r.PrimaryNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "primary_number is required")
	}
	if r.SecondaryNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "secondary_number is required")
	}
	if r.Registration == "" {
		return dErrors.New(dErrors.CodeValidation, "registration is required")
	}
	return nil
}

// HandleFullCheck handles POST /verification/full-check requests.
func (h *Handler) HandleFullCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FullCheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.service.Evaluate(ctx, verification.EvaluateRequest{
		PrimaryNumber:   req.PrimaryNumber,
		SecondaryNumber: req.SecondaryNumber,
		Registration:    req.Registration,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "credit evaluation failed",
			"request_id", requestID,
			"registration", req.Registration,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, verification.NewPayload(outcome))
}
