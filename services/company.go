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

// CompanyService handles tenant storage. Creating a company also seeds its
// default profiles (an administrator bundle holding every capability and a
// viewer bundle holding only dashboard viewing).
type CompanyService struct {
	PG *sql.DB
}

func NewCompanyService(pg *sql.DB) *CompanyService {
	return &CompanyService{PG: pg}
}

// ListCompanies returns all companies. Callers gate this behind the
// super-principal or ADMIN_COMPANY.
func (s *CompanyService) ListCompanies(ctx context.Context) ([]db.Company, error) {
	rows, err := s.PG.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug, COALESCE(c.logo, ''), c.is_active, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM users u WHERE u.company_id = c.id AND u.is_active = true),
		       (SELECT COUNT(*) FROM dashboards d WHERE d.company_id = c.id AND d.is_active = true)
		FROM companies c
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	companies := make([]db.Company, 0)
	for rows.Next() {
		var c db.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Logo, &c.IsActive,
			&c.CreatedAt, &c.UpdatedAt, &c.UsersCount, &c.DashboardsCount); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// GetCompany retrieves one company. A tenant principal can only see its
// own company; any other id is not found.
func (s *CompanyService) GetCompany(ctx context.Context, scope authz.ScopeFilter, id string) (*db.Company, error) {
	if !scope.Super() && *scope.CompanyID != id {
		return nil, authz.ErrNotFound
	}

	var c db.Company
	err := s.PG.QueryRowContext(ctx, `
		SELECT id, name, slug, COALESCE(logo, ''), is_active, created_at, updated_at
		FROM companies
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Logo, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

// CreateCompany creates a tenant plus its default profiles in one
// transaction. Super-principal only (enforced by the handler).
func (s *CompanyService) CreateCompany(ctx context.Context, req db.CreateCompanyRequest) (*db.Company, error) {
	var slugTaken bool
	if err := s.PG.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM companies WHERE slug = $1)`,
		req.Slug).Scan(&slugTaken); err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if slugTaken {
		return nil, authz.ErrAlreadyExists
	}

	now := time.Now()
	c := &db.Company{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Slug:      req.Slug,
		Logo:      req.Logo,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := s.PG.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin company create: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO companies (id, name, slug, logo, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Name, c.Slug, c.Logo, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	if err := createDefaultProfiles(ctx, tx, c.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit company create: %w", err)
	}
	return c, nil
}

// UpdateCompany updates a company under the scope.
func (s *CompanyService) UpdateCompany(ctx context.Context, scope authz.ScopeFilter, id string, req db.UpdateCompanyRequest) (*db.Company, error) {
	current, err := s.GetCompany(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Logo != nil {
		current.Logo = *req.Logo
	}
	if req.IsActive != nil {
		// Only the super-principal may deactivate a tenant.
		if !scope.Super() {
			return nil, authz.ErrForbidden
		}
		current.IsActive = *req.IsActive
	}
	current.UpdatedAt = time.Now()

	result, err := s.PG.ExecContext(ctx, `
		UPDATE companies
		SET name = $2, logo = $3, is_active = $4, updated_at = $5
		WHERE id = $1
	`, current.ID, current.Name, current.Logo, current.IsActive, current.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, authz.ErrNotFound
	}
	return current, nil
}

// DeleteCompany deletes a tenant and everything it owns (cascades).
func (s *CompanyService) DeleteCompany(ctx context.Context, id string) error {
	result, err := s.PG.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return authz.ErrNotFound
	}
	return nil
}

// createDefaultProfiles seeds the Administrador and Visualizador bundles
// for a new company.
func createDefaultProfiles(ctx context.Context, tx *sql.Tx, companyID string) error {
	now := time.Now()

	adminID := uuid.New().String()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (id, name, description, company_id, is_active, created_at, updated_at)
		VALUES ($1, 'Administrador', 'Acesso total ao sistema da empresa', $2, true, $3, $3)
	`, adminID, companyID, now)
	if err != nil {
		return fmt.Errorf("failed to create admin profile: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO profile_permissions (id, profile_id, permission_id, dashboard_id)
		SELECT gen_random_uuid(), $1, id, NULL FROM permissions
	`, adminID)
	if err != nil {
		return fmt.Errorf("failed to grant admin permissions: %w", err)
	}

	viewerID := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (id, name, description, company_id, is_active, created_at, updated_at)
		VALUES ($1, 'Visualizador', 'Apenas visualização de dashboards', $2, true, $3, $3)
	`, viewerID, companyID, now)
	if err != nil {
		return fmt.Errorf("failed to create viewer profile: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO profile_permissions (id, profile_id, permission_id, dashboard_id)
		SELECT gen_random_uuid(), $1, id, NULL FROM permissions WHERE name = $2
	`, viewerID, authz.CapViewDashboard)
	if err != nil {
		return fmt.Errorf("failed to grant viewer permissions: %w", err)
	}
	return nil
}
