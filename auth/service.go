package auth

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a valid bcrypt digest compared against when the account
// does not exist, so "unknown email" and "wrong password" cost the same
// and cannot be told apart by timing.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthService validates submitted credentials against stored accounts.
type AuthService struct {
	PG     *sql.DB
	Tokens *TokenService
}

func NewAuthService(pg *sql.DB, tokens *TokenService) *AuthService {
	return &AuthService{PG: pg, Tokens: tokens}
}

// HashPassword creates a bcrypt hash of the password
func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// Authenticate looks up the account by email, enforces account and company
// active status and verifies the password. Every failure collapses to
// ErrInvalidCredentials: callers must not distinguish "unknown email" from
// "wrong password" or "deactivated account".
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*SessionClaim, error) {
	var (
		id, name, hash string
		companyID      sql.NullString
		profileID      sql.NullString
		active         bool
		companyActive  sql.NullBool
	)
	err := s.PG.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.password, u.company_id, u.profile_id, u.is_active, c.is_active
		FROM users u
		LEFT JOIN companies c ON c.id = u.company_id
		WHERE u.email = $1
	`, email).Scan(&id, &name, &hash, &companyID, &profileID, &active, &companyActive)

	if err == sql.ErrNoRows {
		// Burn the same bcrypt cost as the found path.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !active {
		return nil, ErrInvalidCredentials
	}
	// A principal whose company is inactive is treated as unauthenticated.
	if companyID.Valid && companyActive.Valid && !companyActive.Bool {
		return nil, ErrInvalidCredentials
	}

	claim := &SessionClaim{
		UserID:    id,
		Email:     email,
		Name:      name,
		CompanyID: nullableString(companyID),
		ProfileID: nullableString(profileID),
	}
	return claim, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
