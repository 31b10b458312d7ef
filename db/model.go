package db

import "time"

// ===========================
// TENANT MODELS
// ===========================

// Company is the tenant and isolation boundary.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Logo      string    `json:"logo,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// For API responses
	UsersCount      int `json:"users_count,omitempty"`
	DashboardsCount int `json:"dashboards_count,omitempty"`
}

// User is a stored account. CompanyID is nil for system administrators.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Password  string    `json:"-"`
	CompanyID *string   `json:"company_id"`
	ProfileID *string   `json:"profile_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Populated via JOINs for list views
	ProfileName string `json:"profile_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// Dashboard is a tenant-owned embedded report.
type Dashboard struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PowerBIURL  string    `json:"powerbi_url"`
	CompanyID   *string   `json:"company_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	CompanyName string `json:"company_name,omitempty"`
}

// ===========================
// REQUEST MODELS
// ===========================

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateCompanyRequest struct {
	Name string `json:"name" binding:"required,min=2"`
	Slug string `json:"slug" binding:"required,min=2"`
	Logo string `json:"logo,omitempty"`
}

type UpdateCompanyRequest struct {
	Name     *string `json:"name,omitempty"`
	Logo     *string `json:"logo,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type CreateUserRequest struct {
	Email     string  `json:"email" binding:"required,email"`
	Name      string  `json:"name" binding:"required,min=2"`
	Password  string  `json:"password" binding:"required,min=6"`
	ProfileID string  `json:"profile_id" binding:"required,uuid"`
	CompanyID *string `json:"company_id,omitempty"`
}

type UpdateUserRequest struct {
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	ProfileID *string `json:"profile_id,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// GrantInput names a capability, optionally scoped to one dashboard.
type GrantInput struct {
	Capability  string  `json:"capability" binding:"required"`
	DashboardID *string `json:"dashboard_id,omitempty"`
}

type CreateProfileRequest struct {
	Name        string       `json:"name" binding:"required,min=2"`
	Description string       `json:"description,omitempty"`
	CompanyID   *string      `json:"company_id,omitempty"`
	Grants      []GrantInput `json:"grants,omitempty"`
}

type UpdateProfileRequest struct {
	Name        *string      `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	IsActive    *bool        `json:"is_active,omitempty"`
	Grants      []GrantInput `json:"grants,omitempty"`
}

type CreateDashboardRequest struct {
	Name        string  `json:"name" binding:"required,min=2"`
	Description string  `json:"description,omitempty"`
	PowerBIURL  string  `json:"powerbi_url" binding:"required,url"`
	CompanyID   *string `json:"company_id,omitempty"`
}

type UpdateDashboardRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	PowerBIURL  *string `json:"powerbi_url,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}
