package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/painelbi/painel/auth"
	"github.com/painelbi/painel/authz"
	"github.com/painelbi/painel/db"
	"github.com/painelbi/painel/internal/config"
)

// cookieMaxAge matches the credential validity window.
const cookieMaxAge = int(auth.TokenTTL / time.Second)

type AuthHandler struct {
	Service *auth.AuthService
	Tokens  *auth.TokenService
	Audit   authz.AuditSink
}

func NewAuthHandler(service *auth.AuthService, tokens *auth.TokenService, audit authz.AuditSink) *AuthHandler {
	return &AuthHandler{Service: service, Tokens: tokens, Audit: audit}
}

// Login authenticates the submitted credentials and sets the session
// cookie. The failure response never distinguishes an unknown email from
// a wrong password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req db.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, authz.ErrInvalidInput.Error())
		return
	}

	claim, err := h.Service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			if h.Audit != nil {
				h.Audit.Record(c.Request.Context(), authz.AuditEvent{
					Type:   "auth_failed",
					Detail: "login",
				})
			}
			respondError(c, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
			return
		}
		respondServiceError(c, err)
		return
	}

	token, err := h.Tokens.Issue(*claim)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(authz.CookieName, token, cookieMaxAge, "/", "", config.App.SecureCookie, true)

	respondData(c, http.StatusOK, gin.H{
		"user": gin.H{
			"id":    claim.UserID,
			"email": claim.Email,
			"name":  claim.Name,
		},
		"token": token,
	})
}

// Logout clears the session cookie. The credential itself stays valid
// until expiry; there is no revocation list.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(authz.CookieName, "", -1, "/", "", config.App.SecureCookie, true)
	respondData(c, http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the resolved principal with its profile and grants.
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := authz.PrincipalFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, authz.ErrUnauthenticated.Error())
		return
	}
	respondData(c, http.StatusOK, principal)
}
