package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/painelbi/painel/authz"
	"github.com/painelbi/painel/db"
)

// UserService handles account storage. Reads and writes are tenant-scoped,
// and profile assignment goes through the elevation guard: an actor can
// never hand out a capability they do not hold themselves.
type UserService struct {
	PG *sql.DB
}

func NewUserService(pg *sql.DB) *UserService {
	return &UserService{PG: pg}
}

// ListUsers returns the users visible under the scope.
func (s *UserService) ListUsers(ctx context.Context, scope authz.ScopeFilter) ([]db.User, error) {
	query := `
		SELECT u.id, u.email, u.name, u.company_id, u.profile_id, u.is_active,
		       u.created_at, u.updated_at, COALESCE(p.name, ''), COALESCE(c.name, '')
		FROM users u
		LEFT JOIN profiles p ON p.id = u.profile_id
		LEFT JOIN companies c ON c.id = u.company_id
		WHERE u.is_active = true`
	args := []interface{}{}
	if !scope.Super() {
		query += ` AND u.company_id = $1`
		args = append(args, *scope.CompanyID)
	}
	query += ` ORDER BY u.name`

	rows, err := s.PG.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]db.User, 0)
	for rows.Next() {
		var u db.User
		var companyID, profileID sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &companyID, &profileID, &u.IsActive,
			&u.CreatedAt, &u.UpdatedAt, &u.ProfileName, &u.CompanyName); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.CompanyID = optString(companyID)
		u.ProfileID = optString(profileID)
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUser retrieves one user under the scope.
func (s *UserService) GetUser(ctx context.Context, scope authz.ScopeFilter, id string) (*db.User, error) {
	query := `
		SELECT u.id, u.email, u.name, u.company_id, u.profile_id, u.is_active,
		       u.created_at, u.updated_at, COALESCE(p.name, ''), COALESCE(c.name, '')
		FROM users u
		LEFT JOIN profiles p ON p.id = u.profile_id
		LEFT JOIN companies c ON c.id = u.company_id
		WHERE u.id = $1`
	args := []interface{}{id}
	if !scope.Super() {
		query += ` AND u.company_id = $2`
		args = append(args, *scope.CompanyID)
	}

	var u db.User
	var companyID, profileID sql.NullString
	err := s.PG.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Email, &u.Name,
		&companyID, &profileID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.ProfileName, &u.CompanyName)
	if err == sql.ErrNoRows {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.CompanyID = optString(companyID)
	u.ProfileID = optString(profileID)
	return &u, nil
}

// CreateUser creates an account in the actor's company with the requested
// profile. The profile must be usable by the target company and must not
// grant anything the actor does not hold.
func (s *UserService) CreateUser(ctx context.Context, actor *authz.Principal, req db.CreateUserRequest) (*db.User, error) {
	companyID := req.CompanyID
	if !actor.IsSuper() {
		if companyID != nil && *companyID != *actor.CompanyID {
			return nil, authz.ErrNotFound
		}
		companyID = actor.CompanyID
	}

	var emailTaken bool
	if err := s.PG.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		req.Email).Scan(&emailTaken); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if emailTaken {
		return nil, authz.ErrAlreadyExists
	}

	if err := s.checkProfileAssignment(ctx, actor, req.ProfileID, companyID); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	u := &db.User{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Name:      req.Name,
		CompanyID: companyID,
		ProfileID: &req.ProfileID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.PG.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password, company_id, profile_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID, u.Email, u.Name, string(hash), u.CompanyID, u.ProfileID, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// UpdateUser updates an account under the actor's scope.
func (s *UserService) UpdateUser(ctx context.Context, actor *authz.Principal, id string, req db.UpdateUserRequest) (*db.User, error) {
	scope := actor.Scope()
	current, err := s.GetUser(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != current.Email {
		var taken bool
		if err := s.PG.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id != $2)`,
			*req.Email, id).Scan(&taken); err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return nil, authz.ErrAlreadyExists
		}
		current.Email = *req.Email
	}
	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}
	if req.ProfileID != nil {
		if err := s.checkProfileAssignment(ctx, actor, *req.ProfileID, current.CompanyID); err != nil {
			return nil, err
		}
		current.ProfileID = req.ProfileID
	}

	var passwordHash *string
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		h := string(hash)
		passwordHash = &h
	}

	current.UpdatedAt = time.Now()
	query := `
		UPDATE users
		SET email = $2, name = $3, profile_id = $4, is_active = $5, updated_at = $6,
		    password = COALESCE($7, password)
		WHERE id = $1`
	args := []interface{}{current.ID, current.Email, current.Name, current.ProfileID,
		current.IsActive, current.UpdatedAt, passwordHash}
	if !scope.Super() {
		query += ` AND company_id = $8`
		args = append(args, *scope.CompanyID)
	}

	result, err := s.PG.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, authz.ErrNotFound
	}
	return current, nil
}

// DeleteUser deactivates an account under the scope. Accounts are never
// hard-deleted so audit trails stay intact.
func (s *UserService) DeleteUser(ctx context.Context, scope authz.ScopeFilter, id string) error {
	query := `UPDATE users SET is_active = false, updated_at = $2 WHERE id = $1`
	args := []interface{}{id, time.Now()}
	if !scope.Super() {
		query += ` AND company_id = $3`
		args = append(args, *scope.CompanyID)
	}

	result, err := s.PG.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return authz.ErrNotFound
	}
	return nil
}

// checkProfileAssignment verifies that the profile is usable by the target
// company (owned by it, shared with it, or tenant-less) and that the actor
// holds every capability the profile grants.
func (s *UserService) checkProfileAssignment(ctx context.Context, actor *authz.Principal, profileID string, companyID *string) error {
	var (
		profileCompany sql.NullString
		active         bool
	)
	err := s.PG.QueryRowContext(ctx, `SELECT company_id, is_active FROM profiles WHERE id = $1`,
		profileID).Scan(&profileCompany, &active)
	if err == sql.ErrNoRows {
		return authz.ErrInvalidInput
	}
	if err != nil {
		return fmt.Errorf("failed to look up profile: %w", err)
	}
	if !active {
		return authz.ErrInvalidInput
	}

	usable := !profileCompany.Valid // tenant-less profiles are usable anywhere
	if !usable && companyID != nil {
		if profileCompany.String == *companyID {
			usable = true
		} else {
			// Shared-profile extension: an explicit association row makes a
			// profile usable outside its owning company.
			if err := s.PG.QueryRowContext(ctx, `
				SELECT EXISTS(SELECT 1 FROM profile_companies WHERE profile_id = $1 AND company_id = $2)
			`, profileID, *companyID).Scan(&usable); err != nil {
				return fmt.Errorf("failed to check profile sharing: %w", err)
			}
		}
	}
	if !usable {
		return authz.ErrInvalidInput
	}

	caps, err := s.profileCapabilities(ctx, profileID)
	if err != nil {
		return err
	}
	if !authz.CanElevate(actor, caps) {
		return authz.ErrElevationDenied
	}
	return nil
}

func (s *UserService) profileCapabilities(ctx context.Context, profileID string) ([]string, error) {
	rows, err := s.PG.QueryContext(ctx, `
		SELECT DISTINCT perm.name
		FROM profile_permissions pp
		JOIN permissions perm ON perm.id = pp.permission_id
		WHERE pp.profile_id = $1
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile capabilities: %w", err)
	}
	defer rows.Close()

	var caps []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan capability: %w", err)
		}
		caps = append(caps, name)
	}
	return caps, rows.Err()
}

func optString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
