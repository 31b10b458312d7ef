package authz

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden: you don't have permission to perform this action")
	ErrNotFound        = errors.New("resource not found")
	ErrAlreadyExists   = errors.New("resource already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrElevationDenied = errors.New("cannot grant a permission you don't hold")
)

// Capability names. The catalog is fixed; profiles bundle grants of these.
const (
	CapViewDashboard    = "VIEW_DASHBOARD"
	CapManageDashboards = "MANAGE_DASHBOARDS"
	CapViewUsers        = "VIEW_USERS"
	CapCreateUsers      = "CREATE_USERS"
	CapEditUsers        = "EDIT_USERS"
	CapDeleteUsers      = "DELETE_USERS"
	CapViewProfiles     = "VIEW_PROFILES"
	CapCreateProfiles   = "CREATE_PROFILES"
	CapEditProfiles     = "EDIT_PROFILES"
	CapDeleteProfiles   = "DELETE_PROFILES"
	CapAdminCompany     = "ADMIN_COMPANY"
)

// Capabilities lists every capability in the catalog, with its category.
type CapabilityInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func Capabilities() []CapabilityInfo {
	return []CapabilityInfo{
		{CapViewDashboard, "View dashboards", "DASHBOARD"},
		{CapManageDashboards, "Manage dashboards", "DASHBOARD"},
		{CapViewUsers, "View users", "USER"},
		{CapCreateUsers, "Create users", "USER"},
		{CapEditUsers, "Edit users", "USER"},
		{CapDeleteUsers, "Delete users", "USER"},
		{CapViewProfiles, "View profiles", "PROFILE"},
		{CapCreateProfiles, "Create profiles", "PROFILE"},
		{CapEditProfiles, "Edit profiles", "PROFILE"},
		{CapDeleteProfiles, "Delete profiles", "PROFILE"},
		{CapAdminCompany, "Company administration", "SYSTEM"},
	}
}

// Grant associates a capability with a profile. A nil DashboardID is a
// general grant; a non-nil one scopes the capability to that dashboard.
type Grant struct {
	ID          string  `json:"id"`
	Capability  string  `json:"capability"`
	DashboardID *string `json:"dashboard_id,omitempty"`
}

// Profile is a named role bundle owning a set of grants.
type Profile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CompanyID   *string   `json:"company_id"`
	IsActive    bool      `json:"is_active"`
	Grants      []Grant   `json:"grants"`
	CreatedAt   time.Time `json:"created_at"`
}

// Principal is a resolved, authenticated identity for the duration of one
// request. Built fresh from storage on every request, never cached.
type Principal struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	CompanyID *string  `json:"company_id"`
	IsActive  bool     `json:"is_active"`
	Profile   *Profile `json:"profile,omitempty"`
}

// IsSuper reports whether the principal is the unscoped system
// administrator (no company), exempt from tenant isolation.
func (p *Principal) IsSuper() bool {
	return p.CompanyID == nil
}

// Scope returns the tenant filter every storage query for this principal
// must carry.
func (p *Principal) Scope() ScopeFilter {
	return ScopeFilter{CompanyID: p.CompanyID}
}

// HasCapability reports whether the principal holds the capability,
// optionally for a specific dashboard (empty dashboardID means no resource).
//
// General grants (nil dashboard id) short-circuit and satisfy any
// resource-scoped check. A resource-scoped grant only satisfies a check
// naming that exact dashboard: holding a scoped grant for some other
// dashboard never helps. Pure, no I/O.
func HasCapability(p *Principal, capability, dashboardID string) bool {
	if p == nil || p.Profile == nil {
		return false
	}
	for _, g := range p.Profile.Grants {
		if g.Capability == capability && g.DashboardID == nil {
			return true
		}
	}
	if dashboardID == "" {
		return false
	}
	for _, g := range p.Profile.Grants {
		if g.Capability == capability && g.DashboardID != nil && *g.DashboardID == dashboardID {
			return true
		}
	}
	return false
}

// CanElevate reports whether the grantor holds every capability in caps.
// Used when assigning profiles to users: a principal can never hand out a
// capability they do not themselves hold.
func CanElevate(grantor *Principal, caps []string) bool {
	for _, c := range caps {
		if !HasCapability(grantor, c, "") {
			return false
		}
	}
	return true
}

// GrantCapabilities returns the distinct capability names of a grant set,
// ignoring dashboard scoping. Used to feed CanElevate when a whole profile
// is being assigned.
func GrantCapabilities(grants []Grant) []string {
	seen := make(map[string]bool, len(grants))
	caps := make([]string, 0, len(grants))
	for _, g := range grants {
		if !seen[g.Capability] {
			seen[g.Capability] = true
			caps = append(caps, g.Capability)
		}
	}
	return caps
}
