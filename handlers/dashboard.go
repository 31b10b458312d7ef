package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/painelbi/painel/authz"
	"github.com/painelbi/painel/db"
	"github.com/painelbi/painel/services"
)

type DashboardHandler struct {
	Service *services.DashboardService
	Audit   authz.AuditSink
}

func NewDashboardHandler(service *services.DashboardService, audit authz.AuditSink) *DashboardHandler {
	return &DashboardHandler{Service: service, Audit: audit}
}

// ListDashboards returns the dashboards visible to the principal's tenant.
func (h *DashboardHandler) ListDashboards(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapViewDashboard)
	if !ok {
		return
	}

	dashboards, err := h.Service.ListDashboards(c.Request.Context(), principal.Scope())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, dashboards)
}

// GetFirstDashboard returns the first dashboard the principal can view,
// for the post-login redirect. No blanket capability gate: a principal
// holding only dashboard-scoped grants still has a landing page.
func (h *DashboardHandler) GetFirstDashboard(c *gin.Context) {
	principal, ok := authz.PrincipalFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, authz.ErrUnauthenticated.Error())
		return
	}

	dashboard, err := h.Service.FirstDashboard(c.Request.Context(), principal)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, dashboard)
}

// GetDashboard returns one dashboard. Viewing honors dashboard-scoped
// grants: a principal whose grant names this exact dashboard gets through
// even without the general capability.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	principal, ok := authz.PrincipalFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, authz.ErrUnauthenticated.Error())
		return
	}

	id := c.Param("id")
	if !authz.HasCapability(principal, authz.CapViewDashboard, id) {
		if h.Audit != nil {
			h.Audit.Record(c.Request.Context(), authz.AuditEvent{
				Type:        "forbidden",
				PrincipalID: principal.ID,
				Capability:  authz.CapViewDashboard,
				Detail:      "dashboard " + id,
			})
		}
		respondError(c, http.StatusForbidden, authz.ErrForbidden.Error())
		return
	}

	dashboard, err := h.Service.GetDashboard(c.Request.Context(), principal.Scope(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, dashboard)
}

func (h *DashboardHandler) CreateDashboard(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapManageDashboards)
	if !ok {
		return
	}

	var req db.CreateDashboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, authz.ErrInvalidInput.Error())
		return
	}

	dashboard, err := h.Service.CreateDashboard(c.Request.Context(), principal, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, dashboard)
}

func (h *DashboardHandler) UpdateDashboard(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapManageDashboards)
	if !ok {
		return
	}

	var req db.UpdateDashboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, authz.ErrInvalidInput.Error())
		return
	}

	dashboard, err := h.Service.UpdateDashboard(c.Request.Context(), principal.Scope(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, dashboard)
}

func (h *DashboardHandler) DeleteDashboard(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapManageDashboards)
	if !ok {
		return
	}

	if err := h.Service.DeleteDashboard(c.Request.Context(), principal.Scope(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "dashboard deleted"})
}
