package handler

import (
	"regexp"
	"strings"

	dErrors "vericred/pkg/domain-errors"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// CreatePrimaryRequest is the HTTP request body for POST /identity/primary.
type CreatePrimaryRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// Validate validates and normalizes the request.
func (r *CreatePrimaryRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.Address = strings.TrimSpace(r.Address)

	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 120 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 120 characters")
	}
	if !phonePattern.MatchString(r.Phone) {
		return dErrors.New(dErrors.CodeValidation, "phone must be a 10-digit number")
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "email is not valid")
	}
	return nil
}

// CreateSecondaryRequest is the HTTP request body for POST /identity/secondary.
type CreateSecondaryRequest struct {
	PrimaryNumber string `json:"primary_number"`
}

// Validate validates and normalizes the request.
func (r *CreateSecondaryRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.PrimaryNumber = strings.TrimSpace(r.PrimaryNumber)
	if r.PrimaryNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "primary_number is required")
	}
	return nil
}
