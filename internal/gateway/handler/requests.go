package handler

import (
	"strings"

	dErrors "vericred/pkg/domain-errors"
)

// CreditEvaluateRequest is the HTTP request body for
// POST /external/v1/credit-evaluate. Field names follow the partner wire
// contract. InvoiceID is accepted for forward compatibility and carried
// into the request log only.
type CreditEvaluateRequest struct {
	GSTNumber     string `json:"gst_number"`
	AadhaarNumber string `json:"aadhaar_number"`
	PANNumber     string `json:"pan_number"`
	InvoiceID     string `json:"invoice_id,omitempty"`
}

// Validate validates and normalizes the request.
func (r *CreditEvaluateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.GSTNumber = strings.TrimSpace(r.GSTNumber)
	r.AadhaarNumber = strings.TrimSpace(r.AadhaarNumber)
	r.PANNumber = strings.TrimSpace(r.PANNumber)
	if r.GSTNumber == "" {
		return dErrors.New(dErrors.CodeBadRequest, "gst_number is required")
	}
	if r.AadhaarNumber == "" {
		return dErrors.New(dErrors.CodeBadRequest, "aadhaar_number is required")
	}
	if r.PANNumber == "" {
		return dErrors.New(dErrors.CodeBadRequest, "pan_number is required")
	}
	return nil
}

// GenerateKeysRequest is the HTTP request body for POST /external/generate-keys.
type GenerateKeysRequest struct {
	Name string `json:"name"`
}

// Validate validates and normalizes the request.
func (r *GenerateKeysRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 120 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 120 characters")
	}
	return nil
}
