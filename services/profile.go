package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/painelbi/painel/authz"
	"github.com/painelbi/painel/db"
)

// ProfileService handles role-bundle storage. Grant replacement is
// transactional so a principal resolved mid-edit sees either the old or
// the new grant set, never a mix.
type ProfileService struct {
	PG *sql.DB
}

func NewProfileService(pg *sql.DB) *ProfileService {
	return &ProfileService{PG: pg}
}

// visibleProfiles is the tenant predicate for profiles: owned by the
// company, shared with it via profile_companies, or tenant-less.
const visibleProfiles = `(p.company_id = %s
		OR p.company_id IS NULL
		OR EXISTS (SELECT 1 FROM profile_companies pc WHERE pc.profile_id = p.id AND pc.company_id = %s))`

// ListProfiles returns the active profiles visible under the scope,
// including their grants.
func (s *ProfileService) ListProfiles(ctx context.Context, scope authz.ScopeFilter) ([]authz.Profile, error) {
	query := `
		SELECT p.id, p.name, COALESCE(p.description, ''), p.company_id, p.is_active, p.created_at
		FROM profiles p
		WHERE p.is_active = true`
	args := []interface{}{}
	if !scope.Super() {
		query += ` AND ` + fmt.Sprintf(visibleProfiles, "$1", "$1")
		args = append(args, *scope.CompanyID)
	}
	query += ` ORDER BY p.name`

	rows, err := s.PG.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]authz.Profile, 0)
	for rows.Next() {
		var p authz.Profile
		var companyID sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &companyID, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		p.CompanyID = optString(companyID)
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range profiles {
		grants, err := s.loadGrants(ctx, profiles[i].ID)
		if err != nil {
			return nil, err
		}
		profiles[i].Grants = grants
	}
	return profiles, nil
}

// GetProfile retrieves one profile with its grants under the scope.
func (s *ProfileService) GetProfile(ctx context.Context, scope authz.ScopeFilter, id string) (*authz.Profile, error) {
	query := `
		SELECT p.id, p.name, COALESCE(p.description, ''), p.company_id, p.is_active, p.created_at
		FROM profiles p
		WHERE p.id = $1`
	args := []interface{}{id}
	if !scope.Super() {
		query += ` AND ` + fmt.Sprintf(visibleProfiles, "$2", "$2")
		args = append(args, *scope.CompanyID)
	}

	var p authz.Profile
	var companyID sql.NullString
	err := s.PG.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.Name, &p.Description,
		&companyID, &p.IsActive, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p.CompanyID = optString(companyID)

	p.Grants, err = s.loadGrants(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile creates a profile and its grants in one transaction. The
// actor must hold every capability being granted.
func (s *ProfileService) CreateProfile(ctx context.Context, actor *authz.Principal, req db.CreateProfileRequest) (*authz.Profile, error) {
	companyID := req.CompanyID
	if !actor.IsSuper() {
		if companyID != nil && *companyID != *actor.CompanyID {
			return nil, authz.ErrNotFound
		}
		companyID = actor.CompanyID
	}

	caps := make([]string, 0, len(req.Grants))
	for _, g := range req.Grants {
		if !validCapability(g.Capability) {
			return nil, authz.ErrInvalidInput
		}
		caps = append(caps, g.Capability)
	}
	if !authz.CanElevate(actor, caps) {
		return nil, authz.ErrElevationDenied
	}

	now := time.Now()
	p := &authz.Profile{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		CompanyID:   companyID,
		IsActive:    true,
		CreatedAt:   now,
	}

	tx, err := s.PG.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin profile create: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (id, name, description, company_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.Name, p.Description, p.CompanyID, p.IsActive, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	p.Grants, err = insertGrants(ctx, tx, p.ID, req.Grants)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit profile create: %w", err)
	}
	return p, nil
}

// UpdateProfile updates a profile under the scope. When grants are
// supplied the whole set is replaced transactionally.
func (s *ProfileService) UpdateProfile(ctx context.Context, actor *authz.Principal, id string, req db.UpdateProfileRequest) (*authz.Profile, error) {
	scope := actor.Scope()
	current, err := s.GetProfile(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	// Shared and tenant-less profiles are readable and assignable under a
	// tenant scope, but only the owning company or the super-principal may
	// change them. Anything else is reported as not found.
	if !ownedUnder(scope, current) {
		return nil, authz.ErrNotFound
	}

	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Description != nil {
		current.Description = *req.Description
	}
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}

	if req.Grants != nil {
		caps := make([]string, 0, len(req.Grants))
		for _, g := range req.Grants {
			if !validCapability(g.Capability) {
				return nil, authz.ErrInvalidInput
			}
			caps = append(caps, g.Capability)
		}
		if !authz.CanElevate(actor, caps) {
			return nil, authz.ErrElevationDenied
		}
	}

	tx, err := s.PG.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin profile update: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE profiles
		SET name = $2, description = $3, is_active = $4, updated_at = $5
		WHERE id = $1`
	args := []interface{}{current.ID, current.Name, current.Description, current.IsActive, time.Now()}
	if !scope.Super() {
		query += ` AND company_id = $6`
		args = append(args, *scope.CompanyID)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, authz.ErrNotFound
	}

	if req.Grants != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM profile_permissions WHERE profile_id = $1`, current.ID); err != nil {
			return nil, fmt.Errorf("failed to clear grants: %w", err)
		}
		current.Grants, err = insertGrants(ctx, tx, current.ID, req.Grants)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit profile update: %w", err)
	}
	return current, nil
}

// DeleteProfile deletes a profile under the scope. Profiles with assigned
// users are rejected rather than orphaning accounts.
func (s *ProfileService) DeleteProfile(ctx context.Context, scope authz.ScopeFilter, id string) error {
	current, err := s.GetProfile(ctx, scope, id)
	if err != nil {
		return err
	}
	if !ownedUnder(scope, current) {
		return authz.ErrNotFound
	}

	var inUse bool
	if err := s.PG.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE profile_id = $1 AND is_active = true)`,
		id).Scan(&inUse); err != nil {
		return fmt.Errorf("failed to check profile usage: %w", err)
	}
	if inUse {
		return authz.ErrInvalidInput
	}

	query := `DELETE FROM profiles WHERE id = $1`
	args := []interface{}{id}
	if !scope.Super() {
		query += ` AND company_id = $2`
		args = append(args, *scope.CompanyID)
	}

	result, err := s.PG.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return authz.ErrNotFound
	}
	return nil
}

// ShareProfile associates a profile with an additional company. Reserved
// for the super-principal: it is the one cross-tenant write in the system.
func (s *ProfileService) ShareProfile(ctx context.Context, actor *authz.Principal, profileID, companyID string) error {
	if !actor.IsSuper() {
		return authz.ErrForbidden
	}

	var exists bool
	if err := s.PG.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)`,
		profileID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check profile: %w", err)
	}
	if !exists {
		return authz.ErrNotFound
	}
	if err := s.PG.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM companies WHERE id = $1)`,
		companyID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check company: %w", err)
	}
	if !exists {
		return authz.ErrNotFound
	}

	_, err := s.PG.ExecContext(ctx, `
		INSERT INTO profile_companies (profile_id, company_id)
		VALUES ($1, $2)
		ON CONFLICT (profile_id, company_id) DO NOTHING
	`, profileID, companyID)
	if err != nil {
		return fmt.Errorf("failed to share profile: %w", err)
	}
	return nil
}

func (s *ProfileService) loadGrants(ctx context.Context, profileID string) ([]authz.Grant, error) {
	rows, err := s.PG.QueryContext(ctx, `
		SELECT pp.id, perm.name, pp.dashboard_id
		FROM profile_permissions pp
		JOIN permissions perm ON perm.id = pp.permission_id
		WHERE pp.profile_id = $1
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grants: %w", err)
	}
	defer rows.Close()

	grants := make([]authz.Grant, 0)
	for rows.Next() {
		var g authz.Grant
		var dashboardID sql.NullString
		if err := rows.Scan(&g.ID, &g.Capability, &dashboardID); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		g.DashboardID = optString(dashboardID)
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func insertGrants(ctx context.Context, tx *sql.Tx, profileID string, inputs []db.GrantInput) ([]authz.Grant, error) {
	grants := make([]authz.Grant, 0, len(inputs))
	for _, in := range inputs {
		g := authz.Grant{
			ID:          uuid.New().String(),
			Capability:  in.Capability,
			DashboardID: in.DashboardID,
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO profile_permissions (id, profile_id, permission_id, dashboard_id)
			SELECT $1, $2, perm.id, $4 FROM permissions perm WHERE perm.name = $3
		`, g.ID, profileID, g.Capability, g.DashboardID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, nil
}

// ownedUnder reports whether the scope may mutate the profile. Visibility
// admits shared and tenant-less profiles; mutation requires ownership.
func ownedUnder(scope authz.ScopeFilter, p *authz.Profile) bool {
	if scope.Super() {
		return true
	}
	return p.CompanyID != nil && *p.CompanyID == *scope.CompanyID
}

func validCapability(name string) bool {
	for _, c := range authz.Capabilities() {
		if c.Name == name {
			return true
		}
	}
	return false
}
