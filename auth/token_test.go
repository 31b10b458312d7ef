package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenService_RoundTrip(t *testing.T) {
	s := NewTokenService("test-secret")
	claim := validClaim()

	token, err := s.Issue(claim)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	got := s.Verify(token)
	if got == nil {
		t.Fatal("Verify() = nil for a freshly issued credential")
	}
	if got.UserID != claim.UserID || got.Email != claim.Email || got.Name != claim.Name {
		t.Errorf("Verify() = %+v, want %+v", got, claim)
	}
	if got.CompanyID == nil || *got.CompanyID != *claim.CompanyID {
		t.Errorf("Verify() company = %v, want %v", got.CompanyID, *claim.CompanyID)
	}
	if got.ProfileID == nil || *got.ProfileID != *claim.ProfileID {
		t.Errorf("Verify() profile = %v, want %v", got.ProfileID, *claim.ProfileID)
	}
}

func TestTokenService_IssueRejectsInvalidClaim(t *testing.T) {
	s := NewTokenService("test-secret")
	claim := validClaim()
	claim.Email = "not-an-email"

	if _, err := s.Issue(claim); err == nil {
		t.Error("Issue() accepted a claim failing schema validation")
	}
}

func TestTokenService_Expiry(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewTokenService("test-secret")
	s.now = func() time.Time { return issuedAt }

	token, err := s.Issue(validClaim())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Just inside the window.
	s.now = func() time.Time { return issuedAt.Add(TokenTTL - time.Minute) }
	if s.Verify(token) == nil {
		t.Error("Verify() rejected a credential still inside its validity window")
	}

	// Just past it.
	s.now = func() time.Time { return issuedAt.Add(TokenTTL + time.Minute) }
	if s.Verify(token) != nil {
		t.Error("Verify() accepted an expired credential")
	}
}

func TestTokenService_Tampered(t *testing.T) {
	s := NewTokenService("test-secret")
	token, err := s.Issue(validClaim())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if s.Verify(token+"x") != nil {
		t.Error("Verify() accepted a credential with a corrupted signature")
	}

	other := NewTokenService("other-secret")
	if s.Verify(mustIssue(t, other)) != nil {
		t.Error("Verify() accepted a credential signed with another secret")
	}
}

func TestTokenService_WithoutExpiry(t *testing.T) {
	// A well-signed credential that omits the expiry field is rejected:
	// credentials are never open-ended.
	s := NewTokenService("test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		SessionClaim: validClaim(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	if s.Verify(signed) != nil {
		t.Error("Verify() accepted a credential without an expiry")
	}
}

func TestTokenService_RejectsStaleSchema(t *testing.T) {
	// Signature alone is not trust: a payload that fails claim validation
	// is rejected even when correctly signed and unexpired.
	s := NewTokenService("test-secret")
	claim := validClaim()
	claim.UserID = "legacy-numeric-id-42"

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		SessionClaim: claim,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	if s.Verify(signed) != nil {
		t.Error("Verify() accepted a signed credential with an out-of-schema payload")
	}
}

func TestTokenService_RejectsUnexpectedAlgorithm(t *testing.T) {
	s := NewTokenService("test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, tokenClaims{
		SessionClaim: validClaim(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	if s.Verify(signed) != nil {
		t.Error("Verify() accepted a credential signed with a non-HS256 algorithm")
	}
}

func mustIssue(t *testing.T, s *TokenService) string {
	t.Helper()
	token, err := s.Issue(validClaim())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return token
}
