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

// DashboardService handles dashboard storage. Every query on tenant-owned
// rows carries the caller's ScopeFilter: tenant principals only ever see
// their own company's dashboards, the super-principal sees all.
type DashboardService struct {
	PG *sql.DB
}

func NewDashboardService(pg *sql.DB) *DashboardService {
	return &DashboardService{PG: pg}
}

// ListDashboards returns the active dashboards visible under the scope.
func (s *DashboardService) ListDashboards(ctx context.Context, scope authz.ScopeFilter) ([]db.Dashboard, error) {
	query := `
		SELECT d.id, d.name, COALESCE(d.description, ''), d.powerbi_url, d.company_id,
		       d.is_active, d.created_at, d.updated_at, COALESCE(c.name, '')
		FROM dashboards d
		LEFT JOIN companies c ON c.id = d.company_id
		WHERE d.is_active = true`
	args := []interface{}{}
	if !scope.Super() {
		query += ` AND d.company_id = $1`
		args = append(args, *scope.CompanyID)
	}
	query += ` ORDER BY d.name`

	rows, err := s.PG.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	defer rows.Close()

	dashboards := make([]db.Dashboard, 0)
	for rows.Next() {
		var d db.Dashboard
		var companyID sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.PowerBIURL, &companyID,
			&d.IsActive, &d.CreatedAt, &d.UpdatedAt, &d.CompanyName); err != nil {
			return nil, fmt.Errorf("failed to scan dashboard: %w", err)
		}
		if companyID.Valid {
			c := companyID.String
			d.CompanyID = &c
		}
		dashboards = append(dashboards, d)
	}
	return dashboards, rows.Err()
}

// GetDashboard retrieves one dashboard under the scope. A dashboard owned
// by another tenant is reported as not found, never as forbidden.
func (s *DashboardService) GetDashboard(ctx context.Context, scope authz.ScopeFilter, id string) (*db.Dashboard, error) {
	query := `
		SELECT d.id, d.name, COALESCE(d.description, ''), d.powerbi_url, d.company_id,
		       d.is_active, d.created_at, d.updated_at, COALESCE(c.name, '')
		FROM dashboards d
		LEFT JOIN companies c ON c.id = d.company_id
		WHERE d.id = $1`
	args := []interface{}{id}
	if !scope.Super() {
		query += ` AND d.company_id = $2`
		args = append(args, *scope.CompanyID)
	}

	var d db.Dashboard
	var companyID sql.NullString
	err := s.PG.QueryRowContext(ctx, query, args...).Scan(&d.ID, &d.Name, &d.Description,
		&d.PowerBIURL, &companyID, &d.IsActive, &d.CreatedAt, &d.UpdatedAt, &d.CompanyName)
	if err == sql.ErrNoRows {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard: %w", err)
	}
	if companyID.Valid {
		c := companyID.String
		d.CompanyID = &c
	}
	return &d, nil
}

// FirstDashboard returns the oldest active dashboard the principal can
// view, honoring dashboard-scoped grants. Clients use it for the
// post-login landing page.
func (s *DashboardService) FirstDashboard(ctx context.Context, actor *authz.Principal) (*db.Dashboard, error) {
	query := `
		SELECT d.id, d.name, COALESCE(d.description, ''), d.powerbi_url, d.company_id,
		       d.is_active, d.created_at, d.updated_at, COALESCE(c.name, '')
		FROM dashboards d
		LEFT JOIN companies c ON c.id = d.company_id
		WHERE d.is_active = true`
	args := []interface{}{}
	scope := actor.Scope()
	if !scope.Super() {
		query += ` AND d.company_id = $1`
		args = append(args, *scope.CompanyID)
	}
	query += ` ORDER BY d.created_at`

	rows, err := s.PG.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d db.Dashboard
		var companyID sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.PowerBIURL, &companyID,
			&d.IsActive, &d.CreatedAt, &d.UpdatedAt, &d.CompanyName); err != nil {
			return nil, fmt.Errorf("failed to scan dashboard: %w", err)
		}
		if companyID.Valid {
			c := companyID.String
			d.CompanyID = &c
		}
		if authz.HasCapability(actor, authz.CapViewDashboard, d.ID) {
			return &d, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, authz.ErrNotFound
}

// CreateDashboard creates a dashboard in the actor's company. The
// super-principal may target any company via req.CompanyID.
func (s *DashboardService) CreateDashboard(ctx context.Context, actor *authz.Principal, req db.CreateDashboardRequest) (*db.Dashboard, error) {
	companyID := req.CompanyID
	if !actor.IsSuper() {
		if companyID != nil && *companyID != *actor.CompanyID {
			return nil, authz.ErrNotFound
		}
		companyID = actor.CompanyID
	}

	var (
		exists bool
		err    error
	)
	if companyID != nil {
		err = s.PG.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM dashboards WHERE name = $1 AND company_id = $2)`,
			req.Name, *companyID).Scan(&exists)
	} else {
		err = s.PG.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM dashboards WHERE name = $1 AND company_id IS NULL)`,
			req.Name).Scan(&exists)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check dashboard name: %w", err)
	}
	if exists {
		return nil, authz.ErrAlreadyExists
	}

	now := time.Now()
	d := &db.Dashboard{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		PowerBIURL:  req.PowerBIURL,
		CompanyID:   companyID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = s.PG.ExecContext(ctx, `
		INSERT INTO dashboards (id, name, description, powerbi_url, company_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, d.ID, d.Name, d.Description, d.PowerBIURL, d.CompanyID, d.IsActive, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard: %w", err)
	}
	return d, nil
}

// UpdateDashboard updates a dashboard under the scope. Zero matched rows
// means not found - including rows that exist in another tenant.
func (s *DashboardService) UpdateDashboard(ctx context.Context, scope authz.ScopeFilter, id string, req db.UpdateDashboardRequest) (*db.Dashboard, error) {
	current, err := s.GetDashboard(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Description != nil {
		current.Description = *req.Description
	}
	if req.PowerBIURL != nil {
		current.PowerBIURL = *req.PowerBIURL
	}
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}
	current.UpdatedAt = time.Now()

	query := `
		UPDATE dashboards
		SET name = $2, description = $3, powerbi_url = $4, is_active = $5, updated_at = $6
		WHERE id = $1`
	args := []interface{}{current.ID, current.Name, current.Description, current.PowerBIURL,
		current.IsActive, current.UpdatedAt}
	if !scope.Super() {
		query += ` AND company_id = $7`
		args = append(args, *scope.CompanyID)
	}

	result, err := s.PG.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update dashboard: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, authz.ErrNotFound
	}
	return current, nil
}

// DeleteDashboard deletes a dashboard under the scope.
func (s *DashboardService) DeleteDashboard(ctx context.Context, scope authz.ScopeFilter, id string) error {
	query := `DELETE FROM dashboards WHERE id = $1`
	args := []interface{}{id}
	if !scope.Super() {
		query += ` AND company_id = $2`
		args = append(args, *scope.CompanyID)
	}

	result, err := s.PG.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete dashboard: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return authz.ErrNotFound
	}
	return nil
}
