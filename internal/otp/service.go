package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	dErrors "vericred/pkg/domain-errors"
	"vericred/pkg/platform/sentinel"
	"vericred/pkg/requestcontext"
)

// ChallengeTTL is the validity window of an issued code.
const ChallengeTTL = 5 * time.Minute

// Store is the persistence port; see internal/otp/store for implementations.
type Store interface {
	Save(ctx context.Context, ch Challenge) error
	VerifyLatest(ctx context.Context, channel Channel, value, code string, now time.Time) (Challenge, error)
	ConsumeLatest(ctx context.Context, channel Channel, value string) (Challenge, error)
	LatestVerified(ctx context.Context, channel Channel, value string) (Challenge, error)
}

// Dispatcher delivers issued codes; see internal/otp/notify.
type Dispatcher interface {
	Send(ctx context.Context, channel Channel, value, code string) error
}

// Observer receives lifecycle counters. Satisfied by internal/otp/metrics.
type Observer interface {
	IncIssued(channel string)
	IncVerified(channel string)
	IncMismatch(channel string)
	IncConsumed(channel string)
	IncSendError()
}

// Service implements the challenge lifecycle. Challenges are stored before
// dispatch, and dispatch failures are logged but never propagated, so a flaky
// SMS or mail provider cannot lose an issued code.
type Service struct {
	store      Store
	dispatcher Dispatcher
	logger     *slog.Logger
	observer   Observer
}

func NewService(store Store, dispatcher Dispatcher, logger *slog.Logger, observer Observer) (*Service, error) {
	if store == nil {
		return nil, errors.New("otp store is required")
	}
	if dispatcher == nil {
		return nil, errors.New("otp dispatcher is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{store: store, dispatcher: dispatcher, logger: logger, observer: observer}, nil
}

// Issue creates and dispatches a fresh 6-digit challenge. Prior unconsumed
// challenges for the same (channel, value) stay untouched; lookups always
// prefer the latest expiry. Returns the issued challenge so non-production
// callers can echo the code.
func (s *Service) Issue(ctx context.Context, channel Channel, value string) (Challenge, error) {
	if value == "" {
		return Challenge{}, dErrors.New(dErrors.CodeValidation, "identity_value is required")
	}

	code, err := generateCode()
	if err != nil {
		return Challenge{}, dErrors.Wrap(dErrors.CodeInternal, "could not generate code", err)
	}

	now := requestcontext.Now(ctx)
	ch := Challenge{
		ID:        uuid.NewString(),
		Channel:   channel,
		Value:     value,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(ChallengeTTL),
	}

	if err := s.store.Save(ctx, ch); err != nil {
		return Challenge{}, dErrors.Wrap(dErrors.CodeInternal, "could not store challenge", err)
	}
	if s.observer != nil {
		s.observer.IncIssued(string(channel))
	}

	// Stored first, dispatched second: delivery failure is non-fatal.
	if err := s.dispatcher.Send(ctx, channel, value, code); err != nil {
		s.logger.ErrorContext(ctx, "otp dispatch failed",
			"request_id", requestcontext.RequestID(ctx),
			"channel", channel,
			"error", err,
		)
		if s.observer != nil {
			s.observer.IncSendError()
		}
	}

	return ch, nil
}

// Verify checks the supplied code against the latest active challenge.
// Wrong codes are counted but never lock the challenge; this mirrors the
// upstream policy and is deliberately not a lockout mechanism.
func (s *Service) Verify(ctx context.Context, channel Channel, value, code string) error {
	_, err := s.store.VerifyLatest(ctx, channel, value, code, requestcontext.Now(ctx))
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeBadRequest, "invalid, used, or expired OTP")
	case errors.Is(err, sentinel.ErrMismatch):
		if s.observer != nil {
			s.observer.IncMismatch(string(channel))
		}
		return dErrors.New(dErrors.CodeBadRequest, "incorrect OTP")
	case err != nil:
		return dErrors.Wrap(dErrors.CodeInternal, "could not verify challenge", err)
	}
	if s.observer != nil {
		s.observer.IncVerified(string(channel))
	}
	return nil
}

// Consume spends the latest verified challenge for a downstream create
// operation. Exactly one concurrent caller can win a given challenge.
func (s *Service) Consume(ctx context.Context, channel Channel, value string) (Challenge, error) {
	ch, err := s.store.ConsumeLatest(ctx, channel, value)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Challenge{}, dErrors.New(dErrors.CodeBadRequest, "identity not verified via OTP or OTP already used")
	}
	if err != nil {
		return Challenge{}, dErrors.Wrap(dErrors.CodeInternal, "could not consume challenge", err)
	}
	if s.observer != nil {
		s.observer.IncConsumed(string(channel))
	}
	return ch, nil
}

// HasVerified reports possession proof for the evaluation path: a verified
// challenge must exist, but it may already be consumed or expired. This is
// intentionally weaker than Consume: evaluation is repeatable, creation is
// one-shot.
func (s *Service) HasVerified(ctx context.Context, channel Channel, value string) (bool, error) {
	_, err := s.store.LatestVerified(ctx, channel, value)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(dErrors.CodeInternal, "could not look up challenge", err)
	}
	return true, nil
}

func generateCode() (string, error) {
	// Uniform over [100000, 999999].
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
