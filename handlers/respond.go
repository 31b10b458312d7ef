package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/painelbi/painel/authz"
)

// respondData writes the uniform success envelope.
func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondError writes the uniform failure envelope.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// respondServiceError maps a service error onto the failure envelope.
// Conflicts collapse into the generic invalid-input message so callers
// can't probe which emails or slugs already exist.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrNotFound):
		respondError(c, http.StatusNotFound, authz.ErrNotFound.Error())
	case errors.Is(err, authz.ErrAlreadyExists), errors.Is(err, authz.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, authz.ErrInvalidInput.Error())
	case errors.Is(err, authz.ErrElevationDenied):
		respondError(c, http.StatusForbidden, authz.ErrElevationDenied.Error())
	case errors.Is(err, authz.ErrForbidden):
		respondError(c, http.StatusForbidden, authz.ErrForbidden.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

// authorize returns the request principal if it holds the capability,
// otherwise writes 403 (or 401 when no principal is attached) and aborts.
// The per-route capability binding lives here in the handlers; the auth
// middleware only proves identity.
func authorize(c *gin.Context, audit authz.AuditSink, capability string) (*authz.Principal, bool) {
	principal, ok := authz.PrincipalFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, authz.ErrUnauthenticated.Error())
		c.Abort()
		return nil, false
	}
	if !authz.HasCapability(principal, capability, "") {
		log.Printf("forbidden: principal=%s capability=%s", principal.ID, capability)
		if audit != nil {
			audit.Record(c.Request.Context(), authz.AuditEvent{
				Type:        "forbidden",
				PrincipalID: principal.ID,
				Capability:  capability,
			})
		}
		respondError(c, http.StatusForbidden, authz.ErrForbidden.Error())
		c.Abort()
		return nil, false
	}
	return principal, true
}
