package authz

import (
	"context"
	"database/sql"
	"fmt"
)

// SimpleResolver implements PrincipalResolver using direct SQL queries.
type SimpleResolver struct {
	db *sql.DB
}

// NewSimpleResolver creates a new SimpleResolver with the given database connection
func NewSimpleResolver(db *sql.DB) *SimpleResolver {
	return &SimpleResolver{db: db}
}

// Ensure SimpleResolver implements PrincipalResolver
var _ PrincipalResolver = (*SimpleResolver)(nil)

// Resolve loads the principal with its profile and grants. Both reads run
// in one read-only transaction so a concurrent grant edit can never produce
// a torn grant set.
func (r *SimpleResolver) Resolve(ctx context.Context, principalID string) (*Principal, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin principal fetch: %w", err)
	}
	defer tx.Rollback()

	var (
		p              Principal
		companyID      sql.NullString
		profileID      sql.NullString
		profileName    sql.NullString
		profileDesc    sql.NullString
		profileCompany sql.NullString
		profileActive  sql.NullBool
	)
	err = tx.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.name, u.company_id, u.is_active,
		       p.id, p.name, COALESCE(p.description, ''), p.company_id, p.is_active
		FROM users u
		LEFT JOIN profiles p ON p.id = u.profile_id
		WHERE u.id = $1
	`, principalID).Scan(&p.ID, &p.Email, &p.Name, &companyID, &p.IsActive,
		&profileID, &profileName, &profileDesc, &profileCompany, &profileActive)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}
	if !p.IsActive {
		return nil, ErrNotFound
	}
	if companyID.Valid {
		c := companyID.String
		p.CompanyID = &c
	}

	// A deactivated profile evaluates the same as no profile at all.
	if profileID.Valid && profileActive.Valid && profileActive.Bool {
		profile := &Profile{
			ID:          profileID.String,
			Name:        profileName.String,
			Description: profileDesc.String,
			IsActive:    true,
		}
		if profileCompany.Valid {
			c := profileCompany.String
			profile.CompanyID = &c
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT pp.id, perm.name, pp.dashboard_id
			FROM profile_permissions pp
			JOIN permissions perm ON perm.id = pp.permission_id
			WHERE pp.profile_id = $1
		`, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load capability grants: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var g Grant
			var dashboardID sql.NullString
			if err := rows.Scan(&g.ID, &g.Capability, &dashboardID); err != nil {
				return nil, fmt.Errorf("failed to scan capability grant: %w", err)
			}
			if dashboardID.Valid {
				d := dashboardID.String
				g.DashboardID = &d
			}
			profile.Grants = append(profile.Grants, g)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read capability grants: %w", err)
		}
		p.Profile = profile
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit principal fetch: %w", err)
	}
	return &p, nil
}
