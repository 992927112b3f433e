package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vericred/internal/auth"
	"vericred/internal/auth/store"
	dErrors "vericred/pkg/domain-errors"
)

type AuthServiceSuite struct {
	suite.Suite
	tokens  *auth.TokenService
	service *auth.Service
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.tokens = auth.NewTokenService("test-signing-key", "vericred", time.Hour)

	var err error
	s.service, err = auth.NewService(store.NewMemory(), s.tokens, logger)
	s.Require().NoError(err)
	s.Require().NoError(s.service.EnsureAdmin(context.Background(), "ops@example.gov", "hunter2!"))
}

func (s *AuthServiceSuite) TestLogin() {
	ctx := context.Background()

	s.Run("valid credentials yield a working token", func() {
		token, err := s.service.Login(ctx, "ops@example.gov", "hunter2!")
		s.Require().NoError(err)

		claims, err := s.tokens.ValidateToken(token)
		s.Require().NoError(err)
		s.Equal("ops@example.gov", claims.Email)
	})

	s.Run("email comparison ignores case and whitespace", func() {
		_, err := s.service.Login(ctx, "  OPS@Example.GOV ", "hunter2!")
		s.NoError(err)
	})

	s.Run("wrong password is unauthorized", func() {
		_, err := s.service.Login(ctx, "ops@example.gov", "wrong")
		s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	s.Run("unknown email fails the same way as a wrong password", func() {
		_, err := s.service.Login(ctx, "nobody@example.gov", "hunter2!")
		s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})
}

func (s *AuthServiceSuite) TestEnsureAdmin() {
	ctx := context.Background()

	s.Run("seeding twice keeps the original password", func() {
		s.Require().NoError(s.service.EnsureAdmin(ctx, "ops@example.gov", "different-password"))

		_, err := s.service.Login(ctx, "ops@example.gov", "hunter2!")
		s.NoError(err)
		_, err = s.service.Login(ctx, "ops@example.gov", "different-password")
		s.Error(err)
	})
}
