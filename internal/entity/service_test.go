package entity_test

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/suite"

	"vericred/internal/entity"
	entitystore "vericred/internal/entity/store"
	"vericred/internal/otp"
	otpstore "vericred/internal/otp/store"
	"vericred/internal/registry"
	registrystore "vericred/internal/registry/store"
	dErrors "vericred/pkg/domain-errors"
	"vericred/pkg/platform/audit"
	auditmemory "vericred/pkg/platform/audit/store/memory"
)

type nopDispatcher struct{}

func (nopDispatcher) Send(context.Context, otp.Channel, string, string) error { return nil }

type EntityServiceSuite struct {
	suite.Suite
	otpSvc      *otp.Service
	registrySvc *registry.Service
	auditor     *auditmemory.Store
	service     *entity.Service

	phoneSeq int
}

func TestEntityServiceSuite(t *testing.T) {
	suite.Run(t, new(EntityServiceSuite))
}

func (s *EntityServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.auditor = auditmemory.New()
	s.phoneSeq = 0

	var err error
	s.otpSvc, err = otp.NewService(otpstore.NewMemory(), nopDispatcher{}, logger, nil)
	s.Require().NoError(err)

	s.registrySvc, err = registry.NewService(registrystore.NewMemory(), s.otpSvc, s.auditor, nil, nil, logger, nil)
	s.Require().NoError(err)

	s.service, err = entity.NewService(entitystore.NewMemory(), s.registrySvc, s.auditor, nil, nil, logger)
	s.Require().NoError(err)
}

func (s *EntityServiceSuite) verifyPhone(phone string) {
	ctx := context.Background()
	ch, err := s.otpSvc.Issue(ctx, otp.ChannelPhone, phone)
	s.Require().NoError(err)
	s.Require().NoError(s.otpSvc.Verify(ctx, otp.ChannelPhone, phone, ch.Code))
}

// newOwner creates a primary profile with a linked secondary and returns the
// primary number.
func (s *EntityServiceSuite) newOwner() string {
	ctx := context.Background()
	s.phoneSeq++
	phone := phoneFor(s.phoneSeq)

	s.verifyPhone(phone)
	p, err := s.registrySvc.CreatePrimary(ctx, registry.CreatePrimaryParams{Name: "Owner", Phone: phone})
	s.Require().NoError(err)

	s.verifyPhone(phone)
	_, err = s.registrySvc.CreateSecondary(ctx, p.Number)
	s.Require().NoError(err)
	return p.Number
}

// newPrimaryOnly creates a primary profile without a secondary.
func (s *EntityServiceSuite) newPrimaryOnly() string {
	ctx := context.Background()
	s.phoneSeq++
	phone := phoneFor(s.phoneSeq)

	s.verifyPhone(phone)
	p, err := s.registrySvc.CreatePrimary(ctx, registry.CreatePrimaryParams{Name: "Owner", Phone: phone})
	s.Require().NoError(err)
	return p.Number
}

func phoneFor(seq int) string {
	digits := "9876500000"
	out := []byte(digits)
	for i := len(out) - 1; i >= 0 && seq > 0; i-- {
		out[i] = byte('0' + seq%10)
		seq /= 10
	}
	return string(out)
}

func (s *EntityServiceSuite) register(owners ...string) entity.Entity {
	e, err := s.service.Register(context.Background(), entity.RegisterParams{
		Name:         "Acme Trading",
		Type:         entity.TypePartnership,
		StateCode:    "27",
		OwnerNumbers: owners,
	})
	s.Require().NoError(err)
	return e
}

func (s *EntityServiceSuite) TestRegister() {
	ctx := context.Background()

	s.Run("registration number embeds state code and secondary number", func() {
		owner := s.newOwner()
		e := s.register(owner)

		s.Regexp(regexp.MustCompile(`^27[A-Z]{5}[0-9]{4}[A-Z][1-9]Z[A-Z0-9]$`), e.Registration)
		s.False(e.Suspended)

		got, err := s.service.Get(ctx, e.Registration)
		s.Require().NoError(err)
		s.Equal(e.ID, got.ID)
	})

	s.Run("writes an audit entry", func() {
		owner := s.newOwner()
		s.register(owner)

		entries, err := s.auditor.List(ctx, 1)
		s.Require().NoError(err)
		s.Equal(audit.ActionCreateEntity, entries[0].Action)
	})

	s.Run("requires at least one owner", func() {
		_, err := s.service.Register(ctx, entity.RegisterParams{
			Name:      "No Owners",
			Type:      entity.TypeLtd,
			StateCode: "27",
		})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})

	s.Run("sole proprietorship allows only one owner", func() {
		a, b := s.newOwner(), s.newOwner()
		_, err := s.service.Register(ctx, entity.RegisterParams{
			Name:         "Two Owner Prop",
			Type:         entity.TypeSoleProp,
			StateCode:    "27",
			OwnerNumbers: []string{a, b},
		})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})

	s.Run("unknown owner is not found", func() {
		_, err := s.service.Register(ctx, entity.RegisterParams{
			Name:         "Ghost Owner",
			Type:         entity.TypeLtd,
			StateCode:    "27",
			OwnerNumbers: []string{"999999999999"},
		})
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("owner without a secondary profile is rejected", func() {
		primaryOnly := s.newPrimaryOnly()
		_, err := s.service.Register(ctx, entity.RegisterParams{
			Name:         "Unlinked Owner",
			Type:         entity.TypeLtd,
			StateCode:    "27",
			OwnerNumbers: []string{primaryOnly},
		})
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})
}

func (s *EntityServiceSuite) TestFilings() {
	ctx := context.Background()
	e := s.register(s.newOwner())

	s.Run("records and lists filings", func() {
		_, err := s.service.AddFiling(ctx, e.Registration, 85)
		s.Require().NoError(err)
		_, err = s.service.AddFiling(ctx, e.Registration, 90)
		s.Require().NoError(err)

		filings, err := s.service.Filings(ctx, e.Registration)
		s.Require().NoError(err)
		s.Len(filings, 2)
	})

	s.Run("score outside range is rejected", func() {
		_, err := s.service.AddFiling(ctx, e.Registration, 101)
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))

		_, err = s.service.AddFiling(ctx, e.Registration, -1)
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})

	s.Run("unknown entity", func() {
		_, err := s.service.AddFiling(ctx, "27XXXXX0000X1ZA", 50)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func (s *EntityServiceSuite) TestInvoices() {
	ctx := context.Background()
	e := s.register(s.newOwner())

	s.Run("records an invoice with UNPAID default", func() {
		inv, err := s.service.AddInvoice(ctx, entity.InvoiceParams{
			Registration:  e.Registration,
			InvoiceNumber: "INV-001",
			BuyerReg:      "29FGHIJ5678K2ZB",
			GrandTotal:    11800,
		})
		s.Require().NoError(err)
		s.Equal(entity.InvoiceUnpaid, inv.Status)

		invoices, err := s.service.Invoices(ctx, e.Registration)
		s.Require().NoError(err)
		s.Len(invoices, 1)
	})

	s.Run("self invoicing is rejected", func() {
		_, err := s.service.AddInvoice(ctx, entity.InvoiceParams{
			Registration:  e.Registration,
			InvoiceNumber: "INV-002",
			BuyerReg:      e.Registration,
		})
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("status update by invoice number writes an audit entry", func() {
		_, err := s.service.AddInvoice(ctx, entity.InvoiceParams{
			Registration:  e.Registration,
			InvoiceNumber: "INV-003",
			BuyerReg:      "29FGHIJ5678K2ZB",
		})
		s.Require().NoError(err)

		updated, err := s.service.UpdateInvoiceStatus(ctx, "INV-003", entity.InvoicePaid, 12)
		s.Require().NoError(err)
		s.Equal(entity.InvoicePaid, updated.Status)
		s.Equal(12, updated.DelayDays)

		entries, err := s.auditor.List(ctx, 1)
		s.Require().NoError(err)
		s.Equal("UPDATE_INVOICE_PAID", entries[0].Action)
	})

	s.Run("unknown invoice", func() {
		_, err := s.service.UpdateInvoiceStatus(ctx, "INV-404", entity.InvoicePaid, 0)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}
