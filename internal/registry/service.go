package registry

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/google/uuid"

	"vericred/internal/otp"
	dErrors "vericred/pkg/domain-errors"
	"vericred/pkg/platform/audit"
	"vericred/pkg/platform/sentinel"
	"vericred/pkg/platform/tx"
	"vericred/pkg/requestcontext"
)

// numberAttempts bounds the unique-number generation loop. With a 12-digit
// space collisions are vanishingly rare; the bound only guards against a
// wedged store.
const numberAttempts = 5

// Store is the persistence port; see internal/registry/store.
type Store interface {
	SavePrimary(ctx context.Context, p PrimaryProfile) error
	GetPrimaryByNumber(ctx context.Context, number string) (PrimaryProfile, error)
	GetPrimaryByPhone(ctx context.Context, phone string) (PrimaryProfile, error)
	SaveSecondary(ctx context.Context, sp SecondaryProfile) error
	GetSecondaryByNumber(ctx context.Context, number string) (SecondaryProfile, error)
	GetSecondaryByPrimary(ctx context.Context, primaryID string) (SecondaryProfile, error)
	CountPrimaries(ctx context.Context) (int, error)
	CountSecondaries(ctx context.Context) (int, error)
}

// Challenges spends OTP challenges. Satisfied by *otp.Service.
type Challenges interface {
	Consume(ctx context.Context, channel otp.Channel, value string) (otp.Challenge, error)
}

// Observer receives creation counters. Satisfied by internal/registry/metrics.
type Observer interface {
	IncCreated(kind string)
	IncConflict(kind string)
}

// Service implements profile creation and lookup. Creation spends a verified
// phone challenge and writes its audit entry in the same unit of work as the
// profile row.
type Service struct {
	store      Store
	challenges Challenges
	auditor    audit.Store
	publisher  audit.Publisher
	atomic     tx.Atomic
	logger     *slog.Logger
	observer   Observer
}

func NewService(store Store, challenges Challenges, auditor audit.Store, publisher audit.Publisher, atomic tx.Atomic, logger *slog.Logger, observer Observer) (*Service, error) {
	if store == nil {
		return nil, errors.New("registry store is required")
	}
	if challenges == nil {
		return nil, errors.New("challenge service is required")
	}
	if auditor == nil {
		return nil, errors.New("audit store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if publisher == nil {
		publisher = audit.NopPublisher{}
	}
	if atomic == nil {
		atomic = tx.Passthrough
	}
	return &Service{
		store:      store,
		challenges: challenges,
		auditor:    auditor,
		publisher:  publisher,
		atomic:     atomic,
		logger:     logger,
		observer:   observer,
	}, nil
}

// CreatePrimaryParams carries the caller-supplied fields of a new primary
// profile. The number is always generated, never accepted from the caller.
type CreatePrimaryParams struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

// CreatePrimary registers a new primary profile. The phone must carry a
// verified unconsumed challenge, which is spent here, and must not already
// belong to a profile.
func (s *Service) CreatePrimary(ctx context.Context, params CreatePrimaryParams) (PrimaryProfile, error) {
	if _, err := s.store.GetPrimaryByPhone(ctx, params.Phone); err == nil {
		if s.observer != nil {
			s.observer.IncConflict("primary")
		}
		return PrimaryProfile{}, dErrors.New(dErrors.CodeConflict, "phone already registered to a primary profile")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return PrimaryProfile{}, dErrors.Wrap(dErrors.CodeInternal, "could not check phone registration", err)
	}

	var created PrimaryProfile
	err := s.atomic(ctx, func(ctx context.Context) error {
		if _, err := s.challenges.Consume(ctx, otp.ChannelPhone, params.Phone); err != nil {
			return err
		}

		number, err := s.uniquePrimaryNumber(ctx)
		if err != nil {
			return err
		}

		created = PrimaryProfile{
			ID:        uuid.NewString(),
			Number:    number,
			Name:      params.Name,
			Phone:     params.Phone,
			Email:     params.Email,
			Address:   params.Address,
			KYCStatus: KYCVerified,
			CreatedAt: requestcontext.Now(ctx),
		}
		if err := s.store.SavePrimary(ctx, created); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "phone already registered to a primary profile")
			}
			return dErrors.Wrap(dErrors.CodeInternal, "could not save primary profile", err)
		}

		return s.appendAudit(ctx, audit.ActionCreateIdentity, "PrimaryProfile", created.ID)
	})
	if err != nil {
		return PrimaryProfile{}, err
	}

	if s.observer != nil {
		s.observer.IncCreated("primary")
	}
	s.logger.InfoContext(ctx, "primary profile created",
		"request_id", requestcontext.RequestID(ctx),
		"profile_id", created.ID,
	)
	return created, nil
}

// CreateSecondary links a new secondary profile to an existing primary. The
// primary's phone must carry a verified unconsumed challenge, which is spent
// here. A primary can hold at most one secondary.
func (s *Service) CreateSecondary(ctx context.Context, primaryNumber string) (SecondaryProfile, error) {
	primary, err := s.store.GetPrimaryByNumber(ctx, primaryNumber)
	if errors.Is(err, sentinel.ErrNotFound) {
		return SecondaryProfile{}, dErrors.New(dErrors.CodeNotFound, "primary profile not found")
	}
	if err != nil {
		return SecondaryProfile{}, dErrors.Wrap(dErrors.CodeInternal, "could not look up primary profile", err)
	}

	if _, err := s.store.GetSecondaryByPrimary(ctx, primary.ID); err == nil {
		if s.observer != nil {
			s.observer.IncConflict("secondary")
		}
		return SecondaryProfile{}, dErrors.New(dErrors.CodeConflict, "secondary profile already linked to this primary")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return SecondaryProfile{}, dErrors.Wrap(dErrors.CodeInternal, "could not check secondary linkage", err)
	}

	var created SecondaryProfile
	err = s.atomic(ctx, func(ctx context.Context) error {
		if _, err := s.challenges.Consume(ctx, otp.ChannelPhone, primary.Phone); err != nil {
			return err
		}

		number, err := s.uniqueSecondaryNumber(ctx)
		if err != nil {
			return err
		}

		created = SecondaryProfile{
			ID:        uuid.NewString(),
			Number:    number,
			PrimaryID: primary.ID,
			Linked:    true,
			CreatedAt: requestcontext.Now(ctx),
		}
		if err := s.store.SaveSecondary(ctx, created); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "secondary profile already linked to this primary")
			}
			return dErrors.Wrap(dErrors.CodeInternal, "could not save secondary profile", err)
		}

		return s.appendAudit(ctx, audit.ActionCreateSecondary, "SecondaryProfile", created.ID)
	})
	if err != nil {
		return SecondaryProfile{}, err
	}

	if s.observer != nil {
		s.observer.IncCreated("secondary")
	}
	s.logger.InfoContext(ctx, "secondary profile created",
		"request_id", requestcontext.RequestID(ctx),
		"profile_id", created.ID,
		"primary_id", primary.ID,
	)
	return created, nil
}

// GetPrimary returns the primary profile with the given number.
func (s *Service) GetPrimary(ctx context.Context, number string) (PrimaryProfile, error) {
	p, err := s.store.GetPrimaryByNumber(ctx, number)
	if errors.Is(err, sentinel.ErrNotFound) {
		return PrimaryProfile{}, dErrors.New(dErrors.CodeNotFound, "primary profile not found")
	}
	if err != nil {
		return PrimaryProfile{}, dErrors.Wrap(dErrors.CodeInternal, "could not look up primary profile", err)
	}
	return p, nil
}

// SecondaryForPrimary returns the secondary profile linked to the given
// primary profile ID.
func (s *Service) SecondaryForPrimary(ctx context.Context, primaryID string) (SecondaryProfile, error) {
	sp, err := s.store.GetSecondaryByPrimary(ctx, primaryID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return SecondaryProfile{}, dErrors.New(dErrors.CodeNotFound, "secondary profile not found")
	}
	if err != nil {
		return SecondaryProfile{}, dErrors.Wrap(dErrors.CodeInternal, "could not look up secondary profile", err)
	}
	return sp, nil
}

// GetSecondary returns the secondary profile with the given number.
func (s *Service) GetSecondary(ctx context.Context, number string) (SecondaryProfile, error) {
	sp, err := s.store.GetSecondaryByNumber(ctx, number)
	if errors.Is(err, sentinel.ErrNotFound) {
		return SecondaryProfile{}, dErrors.New(dErrors.CodeNotFound, "secondary profile not found")
	}
	if err != nil {
		return SecondaryProfile{}, dErrors.Wrap(dErrors.CodeInternal, "could not look up secondary profile", err)
	}
	return sp, nil
}

func (s *Service) appendAudit(ctx context.Context, action, entity, entityID string) error {
	entry := audit.Entry{
		ID:        uuid.NewString(),
		Actor:     audit.ActorAdmin,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: requestcontext.Now(ctx),
	}
	if err := s.auditor.Append(ctx, entry); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "could not record audit entry", err)
	}
	s.publisher.Publish(ctx, entry)
	return nil
}

func (s *Service) uniquePrimaryNumber(ctx context.Context) (string, error) {
	for range numberAttempts {
		number, err := generatePrimaryNumber()
		if err != nil {
			return "", dErrors.Wrap(dErrors.CodeInternal, "could not generate profile number", err)
		}
		_, err = s.store.GetPrimaryByNumber(ctx, number)
		if errors.Is(err, sentinel.ErrNotFound) {
			return number, nil
		}
		if err != nil {
			return "", dErrors.Wrap(dErrors.CodeInternal, "could not check profile number", err)
		}
	}
	return "", dErrors.New(dErrors.CodeInternal, "could not allocate a unique profile number")
}

func (s *Service) uniqueSecondaryNumber(ctx context.Context) (string, error) {
	for range numberAttempts {
		number, err := generateSecondaryNumber()
		if err != nil {
			return "", dErrors.Wrap(dErrors.CodeInternal, "could not generate profile number", err)
		}
		_, err = s.store.GetSecondaryByNumber(ctx, number)
		if errors.Is(err, sentinel.ErrNotFound) {
			return number, nil
		}
		if err != nil {
			return "", dErrors.Wrap(dErrors.CodeInternal, "could not check profile number", err)
		}
	}
	return "", dErrors.New(dErrors.CodeInternal, "could not allocate a unique profile number")
}

// generatePrimaryNumber returns a 12-digit number whose first digit is 1-9.
func generatePrimaryNumber() (string, error) {
	first, err := rand.Int(rand.Reader, big.NewInt(9))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d", first.Int64()+1)
	for range 11 {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&buf, "%d", d.Int64())
	}
	return buf.String(), nil
}

// generateSecondaryNumber returns a number in AAAAA9999A format: five upper
// case letters, four digits, one upper case letter.
func generateSecondaryNumber() (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	buf := make([]byte, 0, 10)
	for range 5 {
		i, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		buf = append(buf, letters[i.Int64()])
	}
	for range 4 {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf = append(buf, byte('0'+d.Int64()))
	}
	i, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
	if err != nil {
		return "", err
	}
	buf = append(buf, letters[i.Int64()])
	return string(buf), nil
}
