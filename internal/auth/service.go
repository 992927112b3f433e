package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	dErrors "vericred/pkg/domain-errors"
	"vericred/pkg/platform/sentinel"
	"vericred/pkg/requestcontext"
)

// Store is the persistence interface for admin accounts. Satisfied by the
// implementations in internal/auth/store.
type Store interface {
	Save(ctx context.Context, a Admin) error
	GetByEmail(ctx context.Context, email string) (Admin, error)
}

// Service handles admin login and account seeding.
type Service struct {
	store  Store
	tokens *TokenService
	logger *slog.Logger
}

func NewService(store Store, tokens *TokenService, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("admin store is required")
	}
	if tokens == nil {
		return nil, errors.New("token service is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{store: store, tokens: tokens, logger: logger}, nil
}

// Login checks the credentials and returns a signed access token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	admin, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "could not look up admin", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	token, err := s.tokens.GenerateToken(admin)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "could not sign access token", err)
	}
	s.logger.InfoContext(ctx, "admin logged in",
		"request_id", requestcontext.RequestID(ctx),
		"admin_id", admin.ID,
	)
	return token, nil
}

// EnsureAdmin creates the account if the email is not taken yet. Used at
// startup to seed the initial operator; an existing account is left alone.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(dErrors.CodeInternal, "could not look up admin", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "could not hash password", err)
	}
	admin := Admin{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, admin); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil
		}
		return dErrors.Wrap(dErrors.CodeInternal, "could not save admin", err)
	}
	s.logger.InfoContext(ctx, "admin account seeded", "email", email)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
