// Package registry holds the identity registry: primary profiles keyed by a
// 12-digit national number and secondary (tax) profiles linked one-to-one to a
// primary. Profile creation spends a verified OTP challenge for the holder's
// phone number.
package registry

import "time"

// KYC status values for primary profiles. Profiles created through the
// OTP-gated flow start out VERIFIED.
const (
	KYCVerified = "VERIFIED"
	KYCPending  = "PENDING"
)

// PrimaryProfile is the root identity record.
type PrimaryProfile struct {
	ID          string
	Number      string
	Name        string
	Phone       string
	Email       string
	Address     string
	KYCStatus   string
	Blacklisted bool
	CreatedAt   time.Time
}

// SecondaryProfile is the tax identity linked to exactly one primary profile.
type SecondaryProfile struct {
	ID        string
	Number    string
	PrimaryID string
	Linked    bool
	CreatedAt time.Time
}
