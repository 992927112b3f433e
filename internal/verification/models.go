// Package verification orchestrates a full credit check: it gates on OTP
// possession proof, gathers profile, entity and invoice data with soft
// lookups, feeds the scoring policy and applies the decision overrides.
package verification

import (
	"time"

	"vericred/internal/scoring"
)

// Reason tags appended by the decision override pass, in evaluation order.
const (
	ReasonIdentityBlacklisted = "IDENTITY_BLACKLISTED"
	ReasonEntitySuspended     = "ENTITY_SUSPENDED"
	ReasonLowCreditScore      = "LOW_CREDIT_SCORE"
)

// rejectThreshold forces a REJECT regardless of risk tier.
const rejectThreshold = 350

// EvaluateRequest identifies the subject of a full check.
type EvaluateRequest struct {
	PrimaryNumber   string
	SecondaryNumber string
	Registration    string
}

// Outcome is the result of one evaluation. Reasons is empty when Verified.
type Outcome struct {
	Verified         bool
	CreditScore      int
	RiskCategory     scoring.Risk
	Recommendation   scoring.Recommendation
	OwnerScore       int
	EntityScore      int
	TransactionScore int
	Reasons          []string
}

// Record is the persisted trace of one evaluation. Written unconditionally,
// approve or reject.
type Record struct {
	ID               string
	PrimaryNumber    string
	SecondaryNumber  string
	Registration     string
	OwnerScore       int
	EntityScore      int
	TransactionScore int
	FinalScore       int
	RiskCategory     string
	Recommendation   string
	CreatedAt        time.Time
}
