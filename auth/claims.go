package auth

import (
	"errors"
	"net/mail"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidClaim       = errors.New("invalid session claim")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// SessionClaim is the minimal identity payload carried inside a signed
// credential. CompanyID is nil for system administrators (unscoped),
// ProfileID is nil for users without an assigned profile.
type SessionClaim struct {
	UserID    string  `json:"userId"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	CompanyID *string `json:"companyId"`
	ProfileID *string `json:"profileId"`
}

// Validate checks the claim against the strict schema. It runs both at
// issuance and after decoding, so a token signed under an older schema
// is never trusted just because its signature checks out.
func (c *SessionClaim) Validate() error {
	if _, err := uuid.Parse(c.UserID); err != nil {
		return ErrInvalidClaim
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return ErrInvalidClaim
	}
	if c.Name == "" {
		return ErrInvalidClaim
	}
	if c.CompanyID != nil {
		if _, err := uuid.Parse(*c.CompanyID); err != nil {
			return ErrInvalidClaim
		}
	}
	if c.ProfileID != nil {
		if _, err := uuid.Parse(*c.ProfileID); err != nil {
			return ErrInvalidClaim
		}
	}
	return nil
}
