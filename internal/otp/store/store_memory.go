package store

import (
	"context"
	"sync"
	"time"

	"vericred/internal/otp"
	"vericred/pkg/platform/sentinel"
)

// InMemoryStore keeps challenges in a map keyed by (channel, value). It backs
// unit tests and single-process deployments; one mutex gives the
// verify/consume paths their single-winner guarantee.
type InMemoryStore struct {
	mu         sync.Mutex
	challenges map[memoryKey][]*otp.Challenge
}

type memoryKey struct {
	channel otp.Channel
	value   string
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{challenges: make(map[memoryKey][]*otp.Challenge)}
}

func (s *InMemoryStore) Save(_ context.Context, ch otp.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey{ch.Channel, ch.Value}
	copied := ch
	s.challenges[key] = append(s.challenges[key], &copied)
	return nil
}

// latest returns the stored challenge with the greatest expiry among those
// matching the filter. Caller holds the mutex.
func (s *InMemoryStore) latest(key memoryKey, match func(*otp.Challenge) bool) *otp.Challenge {
	var best *otp.Challenge
	for _, ch := range s.challenges[key] {
		if !match(ch) {
			continue
		}
		if best == nil || ch.ExpiresAt.After(best.ExpiresAt) {
			best = ch
		}
	}
	return best
}

func (s *InMemoryStore) VerifyLatest(_ context.Context, channel otp.Channel, value, code string, now time.Time) (otp.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := s.latest(memoryKey{channel, value}, func(ch *otp.Challenge) bool {
		return ch.Active(now)
	})
	if candidate == nil {
		return otp.Challenge{}, sentinel.ErrNotFound
	}
	if candidate.Code != code {
		candidate.AttemptCount++
		return otp.Challenge{}, sentinel.ErrMismatch
	}
	candidate.Verified = true
	return *candidate, nil
}

func (s *InMemoryStore) ConsumeLatest(_ context.Context, channel otp.Channel, value string) (otp.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := s.latest(memoryKey{channel, value}, func(ch *otp.Challenge) bool {
		return ch.Verified && !ch.Consumed
	})
	if candidate == nil {
		return otp.Challenge{}, sentinel.ErrNotFound
	}
	candidate.Consumed = true
	return *candidate, nil
}

func (s *InMemoryStore) LatestVerified(_ context.Context, channel otp.Channel, value string) (otp.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := s.latest(memoryKey{channel, value}, func(ch *otp.Challenge) bool {
		return ch.Verified
	})
	if candidate == nil {
		return otp.Challenge{}, sentinel.ErrNotFound
	}
	return *candidate, nil
}
