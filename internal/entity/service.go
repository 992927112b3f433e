package entity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/google/uuid"

	"vericred/internal/registry"
	dErrors "vericred/pkg/domain-errors"
	"vericred/pkg/platform/audit"
	"vericred/pkg/platform/sentinel"
	"vericred/pkg/platform/tx"
	"vericred/pkg/requestcontext"
)

// Store is the persistence port; see internal/entity/store.
type Store interface {
	SaveEntity(ctx context.Context, e Entity, owners []Owner) error
	GetByRegistration(ctx context.Context, registration string) (Entity, error)
	AddFiling(ctx context.Context, f Filing) error
	ListFilings(ctx context.Context, entityID string) ([]Filing, error)
	AddInvoice(ctx context.Context, inv Invoice) error
	ListInvoices(ctx context.Context, entityID string) ([]Invoice, error)
	GetInvoice(ctx context.Context, idOrNumber string) (Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, invoiceID string, status InvoiceStatus, delayDays int) error
	CountEntities(ctx context.Context) (int, error)
	CountInvoices(ctx context.Context) (int, error)
}

// Profiles resolves owner identities. Satisfied by *registry.Service.
type Profiles interface {
	GetPrimary(ctx context.Context, number string) (registry.PrimaryProfile, error)
	SecondaryForPrimary(ctx context.Context, primaryID string) (registry.SecondaryProfile, error)
}

// Service implements entity registration and ledger maintenance.
type Service struct {
	store     Store
	profiles  Profiles
	auditor   audit.Store
	publisher audit.Publisher
	atomic    tx.Atomic
	logger    *slog.Logger
}

func NewService(store Store, profiles Profiles, auditor audit.Store, publisher audit.Publisher, atomic tx.Atomic, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("entity store is required")
	}
	if profiles == nil {
		return nil, errors.New("profile service is required")
	}
	if auditor == nil {
		return nil, errors.New("audit store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if publisher == nil {
		publisher = audit.NopPublisher{}
	}
	if atomic == nil {
		atomic = tx.Passthrough
	}
	return &Service{
		store:     store,
		profiles:  profiles,
		auditor:   auditor,
		publisher: publisher,
		atomic:    atomic,
		logger:    logger,
	}, nil
}

// RegisterParams carries the caller-supplied fields of a new entity.
// OwnerNumbers holds primary profile numbers; each owner must have a linked
// secondary profile.
type RegisterParams struct {
	Name         string
	Type         Type
	StateCode    string
	Address      string
	OwnerNumbers []string
}

// Register creates a business entity. The registration number derives from
// the first owner's secondary profile number, so every owner must resolve to
// a primary profile with a linked secondary. Sole proprietorships can have
// exactly one owner.
func (s *Service) Register(ctx context.Context, params RegisterParams) (Entity, error) {
	if len(params.OwnerNumbers) == 0 {
		return Entity{}, dErrors.New(dErrors.CodeValidation, "at least one owner is required")
	}
	if params.Type == TypeSoleProp && len(params.OwnerNumbers) > 1 {
		return Entity{}, dErrors.New(dErrors.CodeValidation, "a sole proprietorship can only have one owner")
	}

	entityID := uuid.NewString()
	owners := make([]Owner, 0, len(params.OwnerNumbers))
	var anchorSecondary string
	for _, number := range params.OwnerNumbers {
		primary, err := s.profiles.GetPrimary(ctx, number)
		if err != nil {
			if dErrors.CodeOf(err) == dErrors.CodeNotFound {
				return Entity{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("primary profile %s not found", number))
			}
			return Entity{}, err
		}
		secondary, err := s.profiles.SecondaryForPrimary(ctx, primary.ID)
		if err != nil {
			if dErrors.CodeOf(err) == dErrors.CodeNotFound {
				return Entity{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("no secondary profile linked to primary %s", number))
			}
			return Entity{}, err
		}
		if !secondary.Linked {
			return Entity{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("secondary profile for primary %s is not linked", number))
		}
		owners = append(owners, Owner{
			ID:          uuid.NewString(),
			EntityID:    entityID,
			PrimaryID:   primary.ID,
			SecondaryID: secondary.ID,
		})
		if anchorSecondary == "" {
			anchorSecondary = secondary.Number
		}
	}

	registration, err := generateRegistration(params.StateCode, anchorSecondary)
	if err != nil {
		return Entity{}, dErrors.Wrap(dErrors.CodeInternal, "could not generate registration number", err)
	}

	created := Entity{
		ID:           entityID,
		Registration: registration,
		Name:         params.Name,
		Type:         params.Type,
		StateCode:    params.StateCode,
		Address:      params.Address,
		CreatedAt:    requestcontext.Now(ctx),
	}
	err = s.atomic(ctx, func(ctx context.Context) error {
		if err := s.store.SaveEntity(ctx, created, owners); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "generated registration number conflicts, retry the registration")
			}
			return dErrors.Wrap(dErrors.CodeInternal, "could not save entity", err)
		}
		return s.appendAudit(ctx, audit.ActionCreateEntity, "Entity", created.ID)
	})
	if err != nil {
		return Entity{}, err
	}

	s.logger.InfoContext(ctx, "entity registered",
		"request_id", requestcontext.RequestID(ctx),
		"entity_id", created.ID,
		"registration", created.Registration,
		"owners", len(owners),
	)
	return created, nil
}

// Get returns the entity with the given registration number.
func (s *Service) Get(ctx context.Context, registration string) (Entity, error) {
	e, err := s.store.GetByRegistration(ctx, registration)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Entity{}, dErrors.New(dErrors.CodeNotFound, "entity not found")
	}
	if err != nil {
		return Entity{}, dErrors.Wrap(dErrors.CodeInternal, "could not look up entity", err)
	}
	return e, nil
}

// AddFiling records a compliance filing for the entity.
func (s *Service) AddFiling(ctx context.Context, registration string, complianceScore int) (Filing, error) {
	if complianceScore < 0 || complianceScore > 100 {
		return Filing{}, dErrors.New(dErrors.CodeValidation, "compliance_score must be between 0 and 100")
	}
	e, err := s.Get(ctx, registration)
	if err != nil {
		return Filing{}, err
	}

	f := Filing{
		ID:              uuid.NewString(),
		EntityID:        e.ID,
		ComplianceScore: complianceScore,
		FiledAt:         requestcontext.Now(ctx),
	}
	if err := s.store.AddFiling(ctx, f); err != nil {
		return Filing{}, dErrors.Wrap(dErrors.CodeInternal, "could not save filing", err)
	}
	return f, nil
}

// InvoiceParams carries the caller-supplied fields of a new invoice.
type InvoiceParams struct {
	Registration  string
	InvoiceNumber string
	BuyerReg      string
	TotalTaxable  float64
	TotalTax      float64
	GrandTotal    float64
	Status        InvoiceStatus
	DelayDays     int
}

// AddInvoice records an invoice issued by the entity. An entity cannot
// invoice itself.
func (s *Service) AddInvoice(ctx context.Context, params InvoiceParams) (Invoice, error) {
	e, err := s.Get(ctx, params.Registration)
	if err != nil {
		return Invoice{}, err
	}
	if params.BuyerReg == e.Registration {
		return Invoice{}, dErrors.New(dErrors.CodeBadRequest, "issuer and buyer registrations cannot be the same")
	}

	now := requestcontext.Now(ctx)
	status := params.Status
	if status == "" {
		status = InvoiceUnpaid
	}
	inv := Invoice{
		ID:            uuid.NewString(),
		EntityID:      e.ID,
		InvoiceNumber: params.InvoiceNumber,
		BuyerReg:      params.BuyerReg,
		IssuedAt:      now,
		TotalTaxable:  params.TotalTaxable,
		TotalTax:      params.TotalTax,
		GrandTotal:    params.GrandTotal,
		Status:        status,
		DelayDays:     params.DelayDays,
		CreatedAt:     now,
	}
	if err := s.store.AddInvoice(ctx, inv); err != nil {
		return Invoice{}, dErrors.Wrap(dErrors.CodeInternal, "could not save invoice", err)
	}
	return inv, nil
}

// UpdateInvoiceStatus changes an invoice's payment status. The invoice can be
// addressed by internal ID or by invoice number.
func (s *Service) UpdateInvoiceStatus(ctx context.Context, idOrNumber string, status InvoiceStatus, delayDays int) (Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, idOrNumber)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Invoice{}, dErrors.New(dErrors.CodeNotFound, "invoice not found")
	}
	if err != nil {
		return Invoice{}, dErrors.Wrap(dErrors.CodeInternal, "could not look up invoice", err)
	}

	err = s.atomic(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateInvoiceStatus(ctx, inv.ID, status, delayDays); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "could not update invoice", err)
		}
		return s.appendAudit(ctx, "UPDATE_INVOICE_"+string(status), "Invoice", inv.ID)
	})
	if err != nil {
		return Invoice{}, err
	}

	inv.Status = status
	inv.DelayDays = delayDays
	return inv, nil
}

// Filings returns the entity's filings newest first.
func (s *Service) Filings(ctx context.Context, registration string) ([]Filing, error) {
	e, err := s.Get(ctx, registration)
	if err != nil {
		return nil, err
	}
	filings, err := s.store.ListFilings(ctx, e.ID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not list filings", err)
	}
	return filings, nil
}

// Invoices returns the entity's invoices newest first.
func (s *Service) Invoices(ctx context.Context, registration string) ([]Invoice, error) {
	e, err := s.Get(ctx, registration)
	if err != nil {
		return nil, err
	}
	invoices, err := s.store.ListInvoices(ctx, e.ID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not list invoices", err)
	}
	return invoices, nil
}

func (s *Service) appendAudit(ctx context.Context, action, entityName, entityID string) error {
	entry := audit.Entry{
		ID:        uuid.NewString(),
		Actor:     audit.ActorAdmin,
		Action:    action,
		Entity:    entityName,
		EntityID:  entityID,
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: requestcontext.Now(ctx),
	}
	if err := s.auditor.Append(ctx, entry); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "could not record audit entry", err)
	}
	s.publisher.Publish(ctx, entry)
	return nil
}

// generateRegistration builds a registration number in the form
// stateCode + secondaryNumber + entityDigit + "Z" + checksum.
func generateRegistration(stateCode, secondaryNumber string) (string, error) {
	const checksumAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	digit, err := rand.Int(rand.Reader, big.NewInt(9))
	if err != nil {
		return "", err
	}
	check, err := rand.Int(rand.Reader, big.NewInt(int64(len(checksumAlphabet))))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s%dZ%c", stateCode, secondaryNumber, digit.Int64()+1, checksumAlphabet[check.Int64()]), nil
}
