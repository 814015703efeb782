package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"testseries-service/internal/domain"
)

const issuer = "testseries-service"

// Claims carries the identity fields in a locally issued token.
type Claims struct {
	Sub   string `json:"sub"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier issues and verifies HS256 tokens for development and offline deployments.
type JWTVerifier struct {
	hmac []byte
	ttl  time.Duration
	now  func() time.Time
}

func NewJWTVerifier(secret string, ttl time.Duration) *JWTVerifier {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &JWTVerifier{hmac: []byte(secret), ttl: ttl, now: time.Now}
}

func (v *JWTVerifier) Issue(id domain.Identity) (string, error) {
	now := v.now()
	claims := &Claims{
		Sub:   id.UID,
		Role:  id.Role,
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.hmac)
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (domain.Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.hmac, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !parsed.Valid {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, _ := parsed.Claims.(*Claims)
	if c == nil || c.Sub == "" {
		return domain.Identity{}, ErrInvalidToken
	}
	return domain.Identity{UID: c.Sub, Email: c.Email, Name: c.Name, Role: c.Role}, nil
}
