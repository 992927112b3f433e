package handler

import (
	"strings"

	"vericred/internal/otp"
	dErrors "vericred/pkg/domain-errors"
)

// GenerateRequest is the HTTP request body for POST /otp/generate.
type GenerateRequest struct {
	IdentityType  string `json:"identity_type"`
	IdentityValue string `json:"identity_value"`

	parsedChannel otp.Channel
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *GenerateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.IdentityType = strings.TrimSpace(r.IdentityType)
	r.IdentityValue = strings.TrimSpace(r.IdentityValue)
	if r.IdentityType == "" {
		return dErrors.New(dErrors.CodeValidation, "identity_type is required")
	}
	if r.IdentityValue == "" {
		return dErrors.New(dErrors.CodeValidation, "identity_value is required")
	}
	if len(r.IdentityValue) > 64 {
		return dErrors.New(dErrors.CodeValidation, "identity_value must be at most 64 characters")
	}

	channel, err := otp.ParseChannel(r.IdentityType)
	if err != nil {
		return err
	}
	r.parsedChannel = channel
	return nil
}

// ParsedChannel returns the channel parsed during validation.
func (r *GenerateRequest) ParsedChannel() otp.Channel { return r.parsedChannel }

// VerifyRequest is the HTTP request body for POST /otp/verify.
type VerifyRequest struct {
	IdentityType  string `json:"identity_type"`
	IdentityValue string `json:"identity_value"`
	OTP           string `json:"otp"`

	parsedChannel otp.Channel
}

// Validate validates and parses the request.
func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.IdentityType = strings.TrimSpace(r.IdentityType)
	r.IdentityValue = strings.TrimSpace(r.IdentityValue)
	r.OTP = strings.TrimSpace(r.OTP)
	if r.IdentityType == "" {
		return dErrors.New(dErrors.CodeValidation, "identity_type is required")
	}
	if r.IdentityValue == "" {
		return dErrors.New(dErrors.CodeValidation, "identity_value is required")
	}
	if len(r.OTP) != otp.CodeLength {
		return dErrors.New(dErrors.CodeValidation, "otp must be a 6-digit code")
	}

	channel, err := otp.ParseChannel(r.IdentityType)
	if err != nil {
		return err
	}
	r.parsedChannel = channel
	return nil
}

// ParsedChannel returns the channel parsed during validation.
func (r *VerifyRequest) ParsedChannel() otp.Channel { return r.parsedChannel }
