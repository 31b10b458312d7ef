package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/painelbi/painel/auth"
	"github.com/painelbi/painel/authz"
)

const loginUserID = "11111111-1111-1111-1111-111111111111"

func loginRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenService("test-secret")
	handler := NewAuthHandler(auth.NewAuthService(db, tokens), tokens, nil)

	r := gin.New()
	r.POST("/api/auth/login", handler.Login)
	return r, mock
}

func postLogin(r *gin.Engine, email, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(gin.H{"email": email, "password": password})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	r, mock := loginRouter(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	mock.ExpectQuery("SELECT u.id, u.name, u.password").
		WithArgs("admin@demo.com").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "password", "company_id", "profile_id", "is_active", "company_active"}).
			AddRow(loginUserID, "Administrador Demo", string(hash), nil, nil, true, nil))

	w := postLogin(r, "admin@demo.com", "admin123")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var sessionCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == authz.CookieName {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil {
		t.Fatal("login response did not set the session cookie")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie must be http-only")
	}
	if sessionCookie.MaxAge != cookieMaxAge {
		t.Errorf("cookie max-age = %d, want %d", sessionCookie.MaxAge, cookieMaxAge)
	}

	claim := auth.NewTokenService("test-secret").Verify(sessionCookie.Value)
	if claim == nil || claim.UserID != loginUserID {
		t.Errorf("cookie does not carry a verifiable credential for the account")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestLogin_UniformFailure(t *testing.T) {
	r, mock := loginRouter(t)

	// Unknown account.
	mock.ExpectQuery("SELECT u.id, u.name, u.password").
		WithArgs("nobody@demo.com").
		WillReturnError(sql.ErrNoRows)
	unknown := postLogin(r, "nobody@demo.com", "admin123")

	// Known account, wrong password.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	mock.ExpectQuery("SELECT u.id, u.name, u.password").
		WithArgs("admin@demo.com").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "password", "company_id", "profile_id", "is_active", "company_active"}).
			AddRow(loginUserID, "Administrador Demo", string(hash), nil, nil, true, nil))
	wrong := postLogin(r, "admin@demo.com", "not-the-password")

	if unknown.Code != http.StatusUnauthorized || wrong.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d / %d, want 401 for both", unknown.Code, wrong.Code)
	}
	// Identical bodies: the response must not reveal whether the account
	// exists.
	if unknown.Body.String() != wrong.Body.String() {
		t.Errorf("failure bodies differ: %q vs %q", unknown.Body.String(), wrong.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestLogin_MalformedBody(t *testing.T) {
	r, _ := loginRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
