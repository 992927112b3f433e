// Package store defines challenge persistence. Issuing never invalidates
// prior challenges for the same (channel, value); every lookup selects the
// candidate with the latest expiry, which makes the most recent issue
// authoritative without mutating older rows.
package store

import (
	"context"
	"time"

	"vericred/internal/otp"
)

// Store persists OTP challenges.
//
// VerifyLatest and ConsumeLatest must be atomic with respect to concurrent
// callers: two concurrent consumers of the same challenge must not both
// succeed (the loser observes sentinel.ErrNotFound).
type Store interface {
	// Save appends a freshly issued challenge.
	Save(ctx context.Context, ch otp.Challenge) error

	// VerifyLatest finds the latest-expiry challenge for (channel, value)
	// that is unverified, unconsumed, and unexpired at now, compares the
	// code, and on match marks it verified. A wrong code increments the
	// attempt count and returns sentinel.ErrMismatch. No candidate returns
	// sentinel.ErrNotFound.
	VerifyLatest(ctx context.Context, channel otp.Channel, value, code string, now time.Time) (otp.Challenge, error)

	// ConsumeLatest finds the latest-expiry verified, unconsumed challenge
	// for (channel, value), marks it consumed, and returns it. Single winner
	// under concurrency; no candidate returns sentinel.ErrNotFound.
	ConsumeLatest(ctx context.Context, channel otp.Channel, value string) (otp.Challenge, error)

	// LatestVerified returns the latest-expiry verified challenge for
	// (channel, value), consumed or not, expired or not. The evaluation path
	// checks possession proof without spending the challenge.
	LatestVerified(ctx context.Context, channel otp.Channel, value string) (otp.Challenge, error)
}
