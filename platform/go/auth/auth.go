package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tourbase-hq/reservations/platform/go/role"
)

type ctxKey string

const (
	ctxPrincipal ctxKey = "RESERVATIONS_PRINCIPAL"
)

// Principal is the authenticated actor attached to a request.
// CompanyID is nil for administrators and customers.
type Principal struct {
	UserID    uuid.UUID
	Email     string
	Role      role.Role
	CompanyID *uuid.UUID
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	v := ctx.Value(ctxPrincipal)
	if v == nil {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}

// WithPrincipal stores the principal on the context; exposed for tests and CLI use.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipal, p)
}

// VerifyFunc validates the incoming bearer token and returns the principal it carries.
type VerifyFunc func(ctx context.Context, token string) (*Principal, error)

// Middleware parses the Authorization header and sets the context principal
// using the provided verify function. Requests without a token pass through
// unauthenticated; downstream guards decide whether that is acceptable.
func Middleware(verify VerifyFunc) func(http.Handler) http.Handler {
	if verify == nil {
		panic("auth.Middleware: verify func must not be nil")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, found := ExtractBearerToken(r)
			if token == "" || !found {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := verify(r.Context(), token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="api", error="invalid_token", error_description="%s"`, err.Error()))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxPrincipal, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractBearerToken pulls the bearer token from the Authorization header.
func ExtractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	const prefix = "Bearer "
	// Case-insensitive prefix match.
	if len(authHeader) < len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return "", false
	}

	return strings.TrimSpace(authHeader[len(prefix):]), true
}
