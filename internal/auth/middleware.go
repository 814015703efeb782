package auth

import (
	"context"
	"net/http"
	"strings"

	"testseries-service/internal/domain"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

// UserFromContext returns the resolved caller, if any.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(domain.User)
	return u, ok
}

// Resolver maps a verified identity to the caller's user record.
type Resolver interface {
	Resolve(ctx context.Context, id domain.Identity) (domain.User, error)
}

// ErrorWriter renders an auth failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// TokenFromRequest reads a Bearer token, falling back to the token query
// parameter used by WebSocket clients.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// Middleware verifies the token, resolves the user record and stores it in the request context.
func Middleware(v Verifier, resolver Resolver, fail ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				fail(w, r, domain.ErrUnauthenticated)
				return
			}
			id, err := v.Verify(r.Context(), token)
			if err != nil {
				fail(w, r, domain.ErrUnauthenticated)
				return
			}
			user, err := resolver.Resolve(r.Context(), id)
			if err != nil {
				fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(fail ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				fail(w, r, domain.ErrUnauthenticated)
				return
			}
			if !user.IsAdmin() {
				fail(w, r, domain.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
