package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed validity window for session credentials.
const TokenTTL = 7 * 24 * time.Hour

// tokenClaims wraps a SessionClaim with the registered JWT fields.
type tokenClaims struct {
	SessionClaim
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed session credentials.
// It is stateless: a pure function of input, secret and clock.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService signing with the given secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    TokenTTL,
		now:    time.Now,
	}
}

// Issue validates the claim and returns a signed credential embedding an
// issued-at and the fixed expiry.
func (s *TokenService) Issue(claim SessionClaim) (string, error) {
	if err := claim.Validate(); err != nil {
		return "", err
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		SessionClaim: claim,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Subject:   claim.UserID,
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and re-validates the decoded payload
// against the claim schema. On any failure it returns nil; callers treat
// nil as "unauthenticated", never as an error to surface.
func (s *TokenService) Verify(credential string) *SessionClaim {
	parsed, err := jwt.ParseWithClaims(credential, &tokenClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok {
		return nil
	}
	if err := claims.SessionClaim.Validate(); err != nil {
		return nil
	}

	claim := claims.SessionClaim
	return &claim
}
