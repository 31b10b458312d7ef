package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/painelbi/painel/authz"
)

type PermissionHandler struct {
	Audit authz.AuditSink
}

func NewPermissionHandler(audit authz.AuditSink) *PermissionHandler {
	return &PermissionHandler{Audit: audit}
}

// ListPermissions returns the fixed capability catalog, used by profile
// editors to render the grant picker.
func (h *PermissionHandler) ListPermissions(c *gin.Context) {
	if _, ok := authorize(c, h.Audit, authz.CapViewProfiles); !ok {
		return
	}
	respondData(c, http.StatusOK, authz.Capabilities())
}
