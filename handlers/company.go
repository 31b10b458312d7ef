package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/painelbi/painel/authz"
	"github.com/painelbi/painel/db"
	"github.com/painelbi/painel/services"
)

type CompanyHandler struct {
	Service *services.CompanyService
	Audit   authz.AuditSink
}

func NewCompanyHandler(service *services.CompanyService, audit authz.AuditSink) *CompanyHandler {
	return &CompanyHandler{Service: service, Audit: audit}
}

// ListCompanies is super-principal only: tenant admins see their own
// company via GetCompany.
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapAdminCompany)
	if !ok {
		return
	}
	if !principal.IsSuper() {
		respondError(c, http.StatusForbidden, authz.ErrForbidden.Error())
		return
	}

	companies, err := h.Service.ListCompanies(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, companies)
}

func (h *CompanyHandler) GetCompany(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapAdminCompany)
	if !ok {
		return
	}

	company, err := h.Service.GetCompany(c.Request.Context(), principal.Scope(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, company)
}

func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapAdminCompany)
	if !ok {
		return
	}
	if !principal.IsSuper() {
		respondError(c, http.StatusForbidden, authz.ErrForbidden.Error())
		return
	}

	var req db.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, authz.ErrInvalidInput.Error())
		return
	}

	company, err := h.Service.CreateCompany(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, company)
}

func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapAdminCompany)
	if !ok {
		return
	}

	var req db.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, authz.ErrInvalidInput.Error())
		return
	}

	company, err := h.Service.UpdateCompany(c.Request.Context(), principal.Scope(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, company)
}

func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapAdminCompany)
	if !ok {
		return
	}
	if !principal.IsSuper() {
		respondError(c, http.StatusForbidden, authz.ErrForbidden.Error())
		return
	}

	if err := h.Service.DeleteCompany(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "company deleted"})
}
