package auth

import (
	"context"
	"errors"

	"testseries-service/internal/domain"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid token")

// Verifier turns a bearer token into a verified identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}
