// Package auth guards internal endpoints with bearer-token authentication.
// The gateway's partner endpoints use HMAC signing instead and never pass
// through here.
package auth

import (
	"context"
	"net/http"
	"strings"

	dErrors "vericred/pkg/domain-errors"
	"vericred/pkg/platform/audit"
	"vericred/pkg/platform/httputil"
	"vericred/pkg/requestcontext"
)

// Claims carries the validated token identity.
type Claims struct {
	AdminID string
	Email   string
}

// TokenValidator validates a bearer token. Satisfied by *auth.TokenService.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

type contextKeyAdminID struct{}
type contextKeyAdminEmail struct{}

var (
	ContextKeyAdminID    = contextKeyAdminID{}
	ContextKeyAdminEmail = contextKeyAdminEmail{}
)

// AdminID retrieves the authenticated admin ID from the context.
func AdminID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyAdminID).(string)
	return id
}

// AdminEmail retrieves the authenticated admin email from the context.
func AdminEmail(ctx context.Context) string {
	email, _ := ctx.Value(ContextKeyAdminEmail).(string)
	return email
}

// Middleware rejects requests without a valid bearer token and stamps the
// context with the admin identity and the ADMIN audit actor.
func Middleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, ContextKeyAdminID, claims.AdminID)
			ctx = context.WithValue(ctx, ContextKeyAdminEmail, claims.Email)
			ctx = requestcontext.WithActor(ctx, audit.ActorAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
