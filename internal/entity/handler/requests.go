package handler

import (
	"regexp"
	"strings"

	"vericred/internal/entity"
	dErrors "vericred/pkg/domain-errors"
)

var stateCodePattern = regexp.MustCompile(`^[0-9]{2}$`)

// RegisterRequest is the HTTP request body for POST /business/register.
type RegisterRequest struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	StateCode    string   `json:"state_code"`
	Address      string   `json:"address,omitempty"`
	OwnerNumbers []string `json:"owner_numbers"`

	parsedType entity.Type
}

// Validate validates and parses the request.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	r.StateCode = strings.TrimSpace(r.StateCode)
	r.Address = strings.TrimSpace(r.Address)
	for i := range r.OwnerNumbers {
		r.OwnerNumbers[i] = strings.TrimSpace(r.OwnerNumbers[i])
	}

	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if !stateCodePattern.MatchString(r.StateCode) {
		return dErrors.New(dErrors.CodeValidation, "state_code must be a 2-digit code")
	}
	if len(r.OwnerNumbers) == 0 {
		return dErrors.New(dErrors.CodeValidation, "owner_numbers must not be empty")
	}

	t, err := entity.ParseType(r.Type)
	if err != nil {
		return err
	}
	r.parsedType = t
	return nil
}

// ParsedType returns the entity type parsed during validation.
func (r *RegisterRequest) ParsedType() entity.Type { return r.parsedType }

// FilingRequest is the HTTP request body for POST /business/returns.
type FilingRequest struct {
	Registration    string `json:"registration"`
	ComplianceScore int    `json:"compliance_score"`
}

// Validate validates and normalizes the request.
func (r *FilingRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Registration = strings.TrimSpace(r.Registration)
	if r.Registration == "" {
		return dErrors.New(dErrors.CodeValidation, "registration is required")
	}
	if r.ComplianceScore < 0 || r.ComplianceScore > 100 {
		return dErrors.New(dErrors.CodeValidation, "compliance_score must be between 0 and 100")
	}
	return nil
}

// InvoiceRequest is the HTTP request body for POST /business/invoices.
type InvoiceRequest struct {
	Registration  string  `json:"registration"`
	InvoiceNumber string  `json:"invoice_number"`
	BuyerReg      string  `json:"buyer_registration"`
	TotalTaxable  float64 `json:"total_taxable"`
	TotalTax      float64 `json:"total_tax"`
	GrandTotal    float64 `json:"grand_total"`
	Status        string  `json:"status,omitempty"`
	DelayDays     int     `json:"delay_days,omitempty"`

	parsedStatus entity.InvoiceStatus
}

// Validate validates and parses the request.
func (r *InvoiceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Registration = strings.TrimSpace(r.Registration)
	r.InvoiceNumber = strings.TrimSpace(r.InvoiceNumber)
	r.BuyerReg = strings.TrimSpace(r.BuyerReg)

	if r.Registration == "" {
		return dErrors.New(dErrors.CodeValidation, "registration is required")
	}
	if r.InvoiceNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "invoice_number is required")
	}
	if r.BuyerReg == "" {
		return dErrors.New(dErrors.CodeValidation, "buyer_registration is required")
	}
	if r.GrandTotal < 0 || r.TotalTaxable < 0 || r.TotalTax < 0 {
		return dErrors.New(dErrors.CodeValidation, "amounts must not be negative")
	}
	if r.DelayDays < 0 {
		return dErrors.New(dErrors.CodeValidation, "delay_days must not be negative")
	}

	r.parsedStatus = entity.InvoiceUnpaid
	if r.Status != "" {
		status, err := entity.ParseInvoiceStatus(r.Status)
		if err != nil {
			return err
		}
		r.parsedStatus = status
	}
	return nil
}

// ParsedStatus returns the invoice status parsed during validation.
func (r *InvoiceRequest) ParsedStatus() entity.InvoiceStatus { return r.parsedStatus }

// InvoiceStatusRequest is the HTTP request body for
// PATCH /business/invoices/{id}/status.
type InvoiceStatusRequest struct {
	Status    string `json:"status"`
	DelayDays int    `json:"delay_days,omitempty"`

	parsedStatus entity.InvoiceStatus
}

// Validate validates and parses the request.
func (r *InvoiceStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.DelayDays < 0 {
		return dErrors.New(dErrors.CodeValidation, "delay_days must not be negative")
	}
	status, err := entity.ParseInvoiceStatus(r.Status)
	if err != nil {
		return err
	}
	r.parsedStatus = status
	return nil
}

// ParsedStatus returns the invoice status parsed during validation.
func (r *InvoiceStatusRequest) ParsedStatus() entity.InvoiceStatus { return r.parsedStatus }
