package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vericred/internal/entity"
	"vericred/pkg/platform/httputil"
	"vericred/pkg/requestcontext"
)

// Service defines the interface for entity operations.
type Service interface {
	Register(ctx context.Context, params entity.RegisterParams) (entity.Entity, error)
	Get(ctx context.Context, registration string) (entity.Entity, error)
	AddFiling(ctx context.Context, registration string, complianceScore int) (entity.Filing, error)
	Filings(ctx context.Context, registration string) ([]entity.Filing, error)
	AddInvoice(ctx context.Context, params entity.InvoiceParams) (entity.Invoice, error)
	Invoices(ctx context.Context, registration string) ([]entity.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, idOrNumber string, status entity.InvoiceStatus, delayDays int) (entity.Invoice, error)
}

// Handler wires business entity endpoints to the entity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an entity handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts entity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/business/company/{registration}", h.HandleGet)
	r.Get("/business/company/{registration}/returns", h.HandleListFilings)
	r.Get("/business/company/{registration}/invoices", h.HandleListInvoices)
	r.Post("/business/register", h.HandleRegister)
	r.Post("/business/returns", h.HandleAddFiling)
	r.Post("/business/invoices", h.HandleAddInvoice)
	r.Patch("/business/invoices/{id}/status", h.HandleUpdateInvoiceStatus)
}

// HandleGet handles GET /business/company/{registration} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, err := h.service.Get(r.Context(), chi.URLParam(r, "registration"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromEntity(e))
}

// HandleListFilings handles GET /business/company/{registration}/returns.
func (h *Handler) HandleListFilings(w http.ResponseWriter, r *http.Request) {
	filings, err := h.service.Filings(r.Context(), chi.URLParam(r, "registration"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromFilings(filings))
}

// HandleListInvoices handles GET /business/company/{registration}/invoices.
func (h *Handler) HandleListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.service.Invoices(r.Context(), chi.URLParam(r, "registration"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromInvoices(invoices))
}

// HandleRegister handles POST /business/register requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	e, err := h.service.Register(ctx, entity.RegisterParams{
		Name:         req.Name,
		Type:         req.ParsedType(),
		StateCode:    req.StateCode,
		Address:      req.Address,
		OwnerNumbers: req.OwnerNumbers,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "entity registration failed",
			"request_id", requestID,
			"name", req.Name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, fromEntity(e))
}

// HandleAddFiling handles POST /business/returns requests.
func (h *Handler) HandleAddFiling(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FilingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	f, err := h.service.AddFiling(ctx, req.Registration, req.ComplianceScore)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, fromFiling(f))
}

// HandleAddInvoice handles POST /business/invoices requests.
func (h *Handler) HandleAddInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[InvoiceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	inv, err := h.service.AddInvoice(ctx, entity.InvoiceParams{
		Registration:  req.Registration,
		InvoiceNumber: req.InvoiceNumber,
		BuyerReg:      req.BuyerReg,
		TotalTaxable:  req.TotalTaxable,
		TotalTax:      req.TotalTax,
		GrandTotal:    req.GrandTotal,
		Status:        req.ParsedStatus(),
		DelayDays:     req.DelayDays,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, fromInvoice(inv))
}

// HandleUpdateInvoiceStatus handles PATCH /business/invoices/{id}/status.
func (h *Handler) HandleUpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[InvoiceStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	inv, err := h.service.UpdateInvoiceStatus(ctx, chi.URLParam(r, "id"), req.ParsedStatus(), req.DelayDays)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, fromInvoice(inv))
}
