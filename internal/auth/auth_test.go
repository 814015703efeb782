package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"testseries-service/internal/domain"
)

func TestJWTIssueAndVerify(t *testing.T) {
	v := NewJWTVerifier("secret", time.Hour)
	token, err := v.Issue(domain.Identity{UID: "u1", Email: "ram@example.com", Name: "Ram", Role: "admin"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UID != "u1" || id.Email != "ram@example.com" || id.Role != "admin" {
		t.Fatalf("unexpected identity %+v", id)
	}

	other := NewJWTVerifier("other", time.Hour)
	if _, err := other.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestJWTVerifyExpired(t *testing.T) {
	v := NewJWTVerifier("secret", time.Minute)
	v.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := v.Issue(domain.Identity{UID: "u1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	v.now = time.Now
	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}

func TestIdentityFromClaims(t *testing.T) {
	id := identityFromClaims("uid", map[string]interface{}{
		"email": "sita@example.com", "name": "Sita", "picture": "https://p", "admin": true,
	})
	if id.UID != "uid" || id.Email != "sita@example.com" || id.PhotoURL != "https://p" || id.Role != domain.RoleAdmin {
		t.Fatalf("unexpected identity %+v", id)
	}
	if id := identityFromClaims("uid", map[string]interface{}{"role": "student"}); id.Role != "student" {
		t.Fatalf("expected role claim kept, got %+v", id)
	}
}

type staticResolver struct{}

func (staticResolver) Resolve(_ context.Context, id domain.Identity) (domain.User, error) {
	return domain.User{ID: id.UID, Email: id.Email, Role: id.Role}, nil
}

func failWith(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
	default:
		w.WriteHeader(http.StatusUnauthorized)
	}
}

func TestMiddleware(t *testing.T) {
	v := NewJWTVerifier("secret", time.Hour)
	student, _ := v.Issue(domain.Identity{UID: "s1"})
	admin, _ := v.Issue(domain.Identity{UID: "a1", Role: domain.RoleAdmin})

	var seen domain.User
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Middleware(v, staticResolver{}, failWith)(RequireAdmin(failWith)(final))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"student", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+student) }, http.StatusForbidden},
		{"admin header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+admin) }, http.StatusNoContent},
		{"admin query", func(r *http.Request) { r.URL.RawQuery = "token=" + admin }, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/payments", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
	if seen.ID != "a1" {
		t.Fatalf("expected admin in context, got %+v", seen)
	}
}
