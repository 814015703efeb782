package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"

	"testseries-service/internal/domain"
)

// FirebaseVerifier checks Firebase ID tokens issued to the web client.
type FirebaseVerifier struct {
	client *fbauth.Client
}

func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (domain.Identity, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return identityFromClaims(tok.UID, tok.Claims), nil
}

// identityFromClaims reads the standard profile claims plus the custom role,
// which admins carry either as role=admin or admin=true.
func identityFromClaims(uid string, claims map[string]interface{}) domain.Identity {
	str := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}
	id := domain.Identity{
		UID:      uid,
		Email:    str("email"),
		Name:     str("name"),
		PhotoURL: str("picture"),
		Role:     str("role"),
	}
	if admin, _ := claims["admin"].(bool); admin {
		id.Role = domain.RoleAdmin
	}
	return id
}
