package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vericred/internal/gateway"
	"vericred/internal/verification"
	dErrors "vericred/pkg/domain-errors"
	"vericred/pkg/platform/audit"
	"vericred/pkg/platform/httputil"
	"vericred/pkg/requestcontext"
)

// Request signing headers of the partner wire contract.
const (
	HeaderAPIKey    = "X-API-KEY"
	HeaderTimestamp = "X-TIMESTAMP"
	HeaderSignature = "X-SIGNATURE"
)

// Auth issues credentials and authenticates signed requests. Satisfied by
// *gateway.Service.
type Auth interface {
	IssueKeys(ctx context.Context, name string) (gateway.Consumer, error)
	Authenticate(ctx context.Context, apiKey, timestamp string, body []byte, signature string) (gateway.Consumer, error)
}

// Evaluator runs the full credit check. Satisfied by *verification.Service.
type Evaluator interface {
	Evaluate(ctx context.Context, req verification.EvaluateRequest) (verification.Outcome, error)
}

// Handler wires the external partner endpoints.
type Handler struct {
	auth      Auth
	evaluator Evaluator
	logger    *slog.Logger
}

// New constructs a gateway handler with its dependencies.
func New(auth Auth, evaluator Evaluator, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, evaluator: evaluator, logger: logger}
}

// RegisterExternal mounts the HMAC-guarded partner endpoint.
func (h *Handler) RegisterExternal(r chi.Router) {
	r.Post("/external/v1/credit-evaluate", h.HandleCreditEvaluate)
}

// RegisterKeyIssuance mounts the key issuance endpoint. The caller mounts
// this inside the JWT-guarded router group.
func (h *Handler) RegisterKeyIssuance(r chi.Router) {
	r.Post("/external/generate-keys", h.HandleGenerateKeys)
}

// HandleCreditEvaluate handles POST /external/v1/credit-evaluate requests.
// The signature covers the raw body bytes, so the body is read before any
// JSON parsing and parsed only after the caller is authenticated.
func (h *Handler) HandleCreditEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeBadRequest, "could not read request body", err))
		return
	}

	consumer, err := h.auth.Authenticate(ctx,
		r.Header.Get(HeaderAPIKey),
		r.Header.Get(HeaderTimestamp),
		body,
		r.Header.Get(HeaderSignature),
	)
	if err != nil {
		h.logger.WarnContext(ctx, "gateway authentication failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	var req CreditEvaluateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeBadRequest, "request body must be valid JSON", err))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	ctx = requestcontext.WithActor(ctx, audit.ActorGateway)
	outcome, err := h.evaluator.Evaluate(ctx, verification.EvaluateRequest{
		PrimaryNumber:   req.AadhaarNumber,
		SecondaryNumber: req.PANNumber,
		Registration:    req.GSTNumber,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "gateway credit evaluation failed",
			"request_id", requestID,
			"consumer", consumer.Name,
			"registration", req.GSTNumber,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "gateway credit evaluation served",
		"request_id", requestID,
		"consumer", consumer.Name,
		"registration", req.GSTNumber,
		"invoice_id", req.InvoiceID,
		"recommendation", outcome.Recommendation,
	)
	httputil.WriteJSON(w, http.StatusOK, verification.NewPayload(outcome))
}

// HandleGenerateKeys handles POST /external/generate-keys requests.
func (h *Handler) HandleGenerateKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[GenerateKeysRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	consumer, err := h.auth.IssueKeys(ctx, req.Name)
	if err != nil {
		h.logger.ErrorContext(ctx, "gateway key issuance failed",
			"request_id", requestID,
			"consumer", req.Name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, GenerateKeysResponse{
		Name:      consumer.Name,
		APIKey:    consumer.APIKey,
		APISecret: consumer.Secret,
		Message:   "Store the API secret now, it is not shown again",
	})
}
