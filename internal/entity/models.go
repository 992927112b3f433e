// Package entity holds registered business entities, their compliance filings
// and their invoices. The registration number is derived from the first
// owner's secondary profile number, so registration requires every owner to
// resolve to a primary profile with a linked secondary.
package entity

import (
	"strings"
	"time"

	dErrors "vericred/pkg/domain-errors"
)

// Type classifies a business entity.
type Type string

const (
	TypeSoleProp    Type = "SOLE_PROP"
	TypePartnership Type = "PARTNERSHIP"
	TypePvtLtd      Type = "PVT_LTD"
	TypeLtd         Type = "LTD"
)

// ParseType validates a wire-format entity type.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeSoleProp:
		return TypeSoleProp, nil
	case TypePartnership:
		return TypePartnership, nil
	case TypePvtLtd:
		return TypePvtLtd, nil
	case TypeLtd:
		return TypeLtd, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "type must be SOLE_PROP, PARTNERSHIP, PVT_LTD or LTD")
	}
}

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceUnpaid    InvoiceStatus = "UNPAID"
	InvoiceDefaulted InvoiceStatus = "DEFAULTED"
)

// ParseInvoiceStatus validates a wire-format invoice status.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch InvoiceStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case InvoicePaid:
		return InvoicePaid, nil
	case InvoiceUnpaid:
		return InvoiceUnpaid, nil
	case InvoiceDefaulted:
		return InvoiceDefaulted, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "status must be PAID, UNPAID or DEFAULTED")
	}
}

// Entity is one registered business.
type Entity struct {
	ID           string
	Registration string
	Name         string
	Type         Type
	StateCode    string
	Address      string
	Suspended    bool
	CreatedAt    time.Time
}

// Owner links an entity to one of its owning identities.
type Owner struct {
	ID          string
	EntityID    string
	PrimaryID   string
	SecondaryID string
}

// Filing is one compliance filing with a score in [0, 100].
type Filing struct {
	ID              string
	EntityID        string
	ComplianceScore int
	FiledAt         time.Time
}

// Invoice is one issued invoice. DelayDays only carries meaning for PAID
// invoices settled late.
type Invoice struct {
	ID            string
	EntityID      string
	InvoiceNumber string
	BuyerReg      string
	IssuedAt      time.Time
	TotalTaxable  float64
	TotalTax      float64
	GrandTotal    float64
	Status        InvoiceStatus
	DelayDays     int
	CreatedAt     time.Time
}
