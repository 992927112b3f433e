// Package otp implements the one-time-passcode challenge lifecycle: issue,
// verify, consume. A challenge proves possession of an identity value (a
// primary identity number or a phone number) and gates profile creation and
// credit evaluation.
package otp

import (
	"strings"
	"time"

	dErrors "vericred/pkg/domain-errors"
)

// Channel identifies what kind of identity value a challenge is bound to.
type Channel string

const (
	ChannelPrimaryID Channel = "PRIMARY_ID"
	ChannelPhone     Channel = "PHONE"
)

// CodeLength is the number of digits in an issued code.
const CodeLength = 6

// ParseChannel validates a wire-format channel string.
func ParseChannel(s string) (Channel, error) {
	switch Channel(strings.ToUpper(strings.TrimSpace(s))) {
	case ChannelPrimaryID:
		return ChannelPrimaryID, nil
	case ChannelPhone:
		return ChannelPhone, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "identity_type must be PRIMARY_ID or PHONE")
	}
}

// Challenge is one issued code. A challenge is never mutated after it has
// been consumed.
//
// Lifecycle: created unverified and unconsumed; Verified set on the first
// correct code match before expiry; Consumed set when a downstream create
// operation spends the verified challenge. AttemptCount records wrong-code
// attempts and is informational only; no lockout threshold is enforced.
type Challenge struct {
	ID           string
	Channel      Channel
	Value        string
	Code         string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	AttemptCount int
	Verified     bool
	Consumed     bool
}

// Active reports whether the challenge can still be verified at t.
func (c Challenge) Active(t time.Time) bool {
	return !c.Verified && !c.Consumed && c.ExpiresAt.After(t)
}
