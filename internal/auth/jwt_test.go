package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vericred/internal/auth"
	dErrors "vericred/pkg/domain-errors"
)

func TestTokenService(t *testing.T) {
	admin := auth.Admin{ID: "admin-1", Email: "ops@example.gov"}

	t.Run("round trip preserves the identity claims", func(t *testing.T) {
		svc := auth.NewTokenService("signing-key", "vericred", time.Hour)
		token, err := svc.GenerateToken(admin)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "admin-1", claims.AdminID)
		assert.Equal(t, "ops@example.gov", claims.Email)
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		svc := auth.NewTokenService("signing-key", "vericred", -time.Minute)
		token, err := svc.GenerateToken(admin)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	t.Run("token signed with a different key is rejected", func(t *testing.T) {
		signer := auth.NewTokenService("key-one", "vericred", time.Hour)
		verifier := auth.NewTokenService("key-two", "vericred", time.Hour)
		token, err := signer.GenerateToken(admin)
		require.NoError(t, err)

		_, err = verifier.ValidateToken(token)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		svc := auth.NewTokenService("signing-key", "vericred", time.Hour)
		_, err := svc.ValidateToken("not.a.token")
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})
}
