package authz

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/painelbi/painel/auth"
)

// CookieName is the browser transport for session credentials. Non-browser
// callers use the Authorization header instead.
const CookieName = "auth_token"

const principalKey = "principal"

// AuthMiddleware is the request gate: it extracts the credential, verifies
// it, resolves the principal and attaches it to the request context. It
// proves identity only; each handler owns the capability check for its
// specific operation.
type AuthMiddleware struct {
	Tokens   *auth.TokenService
	Resolver PrincipalResolver
	Audit    AuditSink
}

func NewAuthMiddleware(tokens *auth.TokenService, resolver PrincipalResolver, audit AuditSink) *AuthMiddleware {
	return &AuthMiddleware{Tokens: tokens, Resolver: resolver, Audit: audit}
}

// RequireAuth rejects requests without a valid credential and a resolvable,
// active principal. Verification always runs before resolution: an
// attacker-supplied unsigned id must never reach storage.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := extractCredential(c)
		if credential == "" {
			m.reject(c, "")
			return
		}

		claim := m.Tokens.Verify(credential)
		if claim == nil {
			m.reject(c, "")
			return
		}

		principal, err := m.Resolver.Resolve(c.Request.Context(), claim.UserID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Deleted or deactivated since the credential was issued.
				m.reject(c, claim.UserID)
				return
			}
			log.Printf("principal resolution failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "internal server error",
			})
			c.Abort()
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, principalID string) {
	if m.Audit != nil {
		m.Audit.Record(c.Request.Context(), AuditEvent{
			Type:        "auth_failed",
			PrincipalID: principalID,
			Detail:      c.Request.Method + " " + c.FullPath(),
		})
	}
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   ErrUnauthenticated.Error(),
	})
	c.Abort()
}

// extractCredential reads the session credential from the cookie, falling
// back to a bearer header for non-browser callers.
func extractCredential(c *gin.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// PrincipalFrom returns the principal attached by RequireAuth.
func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}
