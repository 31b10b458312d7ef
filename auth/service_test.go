package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

func accountColumns() []string {
	return []string{"id", "name", "password", "company_id", "profile_id", "is_active", "company_active"}
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

func TestAuthService_Authenticate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	service := NewAuthService(db, NewTokenService("test-secret"))
	ctx := context.Background()

	userID := "11111111-1111-1111-1111-111111111111"
	companyID := "22222222-2222-2222-2222-222222222222"
	hash := hashFor(t, "correct-password")

	tests := []struct {
		name     string
		email    string
		password string
		mockFunc func()
		wantErr  error
	}{
		{
			name:     "valid credentials",
			email:    "user@example.com",
			password: "correct-password",
			mockFunc: func() {
				mock.ExpectQuery("SELECT u.id, u.name, u.password").
					WithArgs("user@example.com").
					WillReturnRows(sqlmock.NewRows(accountColumns()).
						AddRow(userID, "User", hash, companyID, nil, true, true))
			},
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "whatever",
			mockFunc: func() {
				mock.ExpectQuery("SELECT u.id, u.name, u.password").
					WithArgs("nobody@example.com").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "user@example.com",
			password: "wrong-password",
			mockFunc: func() {
				mock.ExpectQuery("SELECT u.id, u.name, u.password").
					WithArgs("user@example.com").
					WillReturnRows(sqlmock.NewRows(accountColumns()).
						AddRow(userID, "User", hash, companyID, nil, true, true))
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "deactivated account",
			email:    "user@example.com",
			password: "correct-password",
			mockFunc: func() {
				mock.ExpectQuery("SELECT u.id, u.name, u.password").
					WithArgs("user@example.com").
					WillReturnRows(sqlmock.NewRows(accountColumns()).
						AddRow(userID, "User", hash, companyID, nil, false, true))
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "deactivated company",
			email:    "user@example.com",
			password: "correct-password",
			mockFunc: func() {
				mock.ExpectQuery("SELECT u.id, u.name, u.password").
					WithArgs("user@example.com").
					WillReturnRows(sqlmock.NewRows(accountColumns()).
						AddRow(userID, "User", hash, companyID, nil, true, false))
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "system administrator without company",
			email:    "root@example.com",
			password: "correct-password",
			mockFunc: func() {
				mock.ExpectQuery("SELECT u.id, u.name, u.password").
					WithArgs("root@example.com").
					WillReturnRows(sqlmock.NewRows(accountColumns()).
						AddRow(userID, "Root", hash, nil, nil, true, nil))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockFunc()
			claim, err := service.Authenticate(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Authenticate() error = %v, want %v", err, tt.wantErr)
				}
				if claim != nil {
					t.Errorf("Authenticate() claim = %+v, want nil on failure", claim)
				}
			} else {
				if err != nil {
					t.Fatalf("Authenticate() error = %v", err)
				}
				if claim.UserID != userID || claim.Email != tt.email {
					t.Errorf("Authenticate() claim = %+v", claim)
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestAuthService_FailuresAreUniform(t *testing.T) {
	// Unknown email and wrong password must be byte-for-byte the same
	// failure, so the API cannot be used to enumerate accounts.
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	service := NewAuthService(db, NewTokenService("test-secret"))
	ctx := context.Background()

	mock.ExpectQuery("SELECT u.id, u.name, u.password").
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)
	_, unknownErr := service.Authenticate(ctx, "nobody@example.com", "pw")

	mock.ExpectQuery("SELECT u.id, u.name, u.password").
		WithArgs("user@example.com").
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow("11111111-1111-1111-1111-111111111111", "User",
				hashFor(t, "correct-password"), nil, nil, true, nil))
	_, wrongErr := service.Authenticate(ctx, "user@example.com", "pw")

	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("errors = %v / %v, want ErrInvalidCredentials for both", unknownErr, wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Errorf("failure messages differ: %q vs %q", unknownErr, wrongErr)
	}
}
