package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vericred/internal/otp"
	"vericred/pkg/platform/httputil"
	"vericred/pkg/requestcontext"
)

// Service defines the interface for challenge operations.
type Service interface {
	Issue(ctx context.Context, channel otp.Channel, value string) (otp.Challenge, error)
	Verify(ctx context.Context, channel otp.Channel, value, code string) error
}

// Handler wires OTP endpoints to the challenge service.
type Handler struct {
	service   Service
	logger    *slog.Logger
	echoCodes bool
}

// New constructs an OTP handler. When echoCodes is true (development only),
// generate responses include the issued code so it can be copied straight
// from the console.
func New(service Service, logger *slog.Logger, echoCodes bool) *Handler {
	return &Handler{
		service:   service,
		logger:    logger,
		echoCodes: echoCodes,
	}
}

// Register mounts OTP endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/otp/generate", h.HandleGenerate)
	r.Post("/otp/verify", h.HandleVerify)
}

// HandleGenerate handles POST /otp/generate requests.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[GenerateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	challenge, err := h.service.Issue(ctx, req.ParsedChannel(), req.IdentityValue)
	if err != nil {
		h.logger.ErrorContext(ctx, "otp generation failed",
			"request_id", requestID,
			"identity_type", req.IdentityType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := GenerateResponse{
		Message:   fmt.Sprintf("OTP sent to %s %s", req.ParsedChannel(), req.IdentityValue),
		ExpiresIn: "5 minutes",
	}
	if h.echoCodes {
		resp.DevOTP = challenge.Code
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleVerify handles POST /otp/verify requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Verify(ctx, req.ParsedChannel(), req.IdentityValue, req.OTP); err != nil {
		h.logger.WarnContext(ctx, "otp verification failed",
			"request_id", requestID,
			"identity_type", req.IdentityType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, VerifyResponse{
		Verified: true,
		Message:  "Identity successfully verified via OTP",
		Identity: req.IdentityValue,
	})
}
