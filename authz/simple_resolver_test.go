package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	testUserID    = "11111111-1111-1111-1111-111111111111"
	testCompanyID = "22222222-2222-2222-2222-222222222222"
	testProfileID = "33333333-3333-3333-3333-333333333333"
)

func principalColumns() []string {
	return []string{"id", "email", "name", "company_id", "is_active",
		"profile_id", "profile_name", "profile_description", "profile_company_id", "profile_active"}
}

func TestSimpleResolver_Resolve(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	resolver := NewSimpleResolver(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT u.id, u.email, u.name").
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows(principalColumns()).
			AddRow(testUserID, "user@example.com", "User", testCompanyID, true,
				testProfileID, "Administrador", "Full access", testCompanyID, true))
	mock.ExpectQuery("SELECT pp.id, perm.name, pp.dashboard_id").
		WithArgs(testProfileID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "dashboard_id"}).
			AddRow("grant-1", CapViewDashboard, nil).
			AddRow("grant-2", CapViewDashboard, "dash-1").
			AddRow("grant-3", CapViewUsers, nil))
	mock.ExpectCommit()

	p, err := resolver.Resolve(ctx, testUserID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.ID != testUserID || p.Email != "user@example.com" {
		t.Errorf("Resolve() principal = %+v", p)
	}
	if p.CompanyID == nil || *p.CompanyID != testCompanyID {
		t.Errorf("Resolve() company = %v, want %s", p.CompanyID, testCompanyID)
	}
	if p.Profile == nil {
		t.Fatal("Resolve() profile is nil")
	}
	if len(p.Profile.Grants) != 3 {
		t.Fatalf("Resolve() loaded %d grants, want 3", len(p.Profile.Grants))
	}
	if p.Profile.Grants[1].DashboardID == nil || *p.Profile.Grants[1].DashboardID != "dash-1" {
		t.Errorf("scoped grant not preserved: %+v", p.Profile.Grants[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSimpleResolver_Resolve_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	resolver := NewSimpleResolver(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT u.id, u.email, u.name").
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows(principalColumns()))
	mock.ExpectRollback()

	_, err = resolver.Resolve(context.Background(), testUserID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSimpleResolver_Resolve_DeactivatedUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	resolver := NewSimpleResolver(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT u.id, u.email, u.name").
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows(principalColumns()).
			AddRow(testUserID, "user@example.com", "User", testCompanyID, false,
				nil, nil, "", nil, nil))
	mock.ExpectRollback()

	_, err = resolver.Resolve(context.Background(), testUserID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound for deactivated user", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSimpleResolver_Resolve_DeactivatedProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	resolver := NewSimpleResolver(db)

	// An inactive profile is dropped entirely: no grant query runs and the
	// principal evaluates as having no capabilities.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT u.id, u.email, u.name").
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows(principalColumns()).
			AddRow(testUserID, "user@example.com", "User", testCompanyID, true,
				testProfileID, "Suspenso", "", testCompanyID, false))
	mock.ExpectCommit()

	p, err := resolver.Resolve(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.Profile != nil {
		t.Errorf("Resolve() kept deactivated profile: %+v", p.Profile)
	}
	if HasCapability(p, CapViewDashboard, "") {
		t.Error("principal with deactivated profile should hold no capabilities")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSimpleResolver_Resolve_NoProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	resolver := NewSimpleResolver(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT u.id, u.email, u.name").
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows(principalColumns()).
			AddRow(testUserID, "user@example.com", "User", nil, true,
				nil, nil, "", nil, nil))
	mock.ExpectCommit()

	p, err := resolver.Resolve(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !p.IsSuper() {
		t.Error("principal without company should be super")
	}
	if p.Profile != nil {
		t.Errorf("Resolve() profile = %+v, want nil", p.Profile)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
