package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: profile/challenge/consumer does not exist in store
// - ErrConflict: unique value collision (phone, identity number, registration number)
// - ErrExpired: OTP challenge or gateway timestamp outside its window
// - ErrMismatch: supplied code or signature does not match the stored one
// - ErrAlreadyUsed: challenge already consumed by an earlier operation
// - ErrUnavailable: backing store temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrMismatch    = errors.New("mismatch")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)
