package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/painelbi/painel/authz"
	"github.com/painelbi/painel/db"
	"github.com/painelbi/painel/services"
)

type ProfileHandler struct {
	Service *services.ProfileService
	Audit   authz.AuditSink
}

func NewProfileHandler(service *services.ProfileService, audit authz.AuditSink) *ProfileHandler {
	return &ProfileHandler{Service: service, Audit: audit}
}

func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapViewProfiles)
	if !ok {
		return
	}

	profiles, err := h.Service.ListProfiles(c.Request.Context(), principal.Scope())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, profiles)
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapViewProfiles)
	if !ok {
		return
	}

	profile, err := h.Service.GetProfile(c.Request.Context(), principal.Scope(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, profile)
}

func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapCreateProfiles)
	if !ok {
		return
	}

	var req db.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, authz.ErrInvalidInput.Error())
		return
	}

	profile, err := h.Service.CreateProfile(c.Request.Context(), principal, req)
	if err != nil {
		if err == authz.ErrElevationDenied && h.Audit != nil {
			h.Audit.Record(c.Request.Context(), authz.AuditEvent{
				Type:        "elevation_denied",
				PrincipalID: principal.ID,
				Detail:      "create profile",
			})
		}
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, profile)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapEditProfiles)
	if !ok {
		return
	}

	var req db.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, authz.ErrInvalidInput.Error())
		return
	}

	profile, err := h.Service.UpdateProfile(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		if err == authz.ErrElevationDenied && h.Audit != nil {
			h.Audit.Record(c.Request.Context(), authz.AuditEvent{
				Type:        "elevation_denied",
				PrincipalID: principal.ID,
				Detail:      "update profile " + c.Param("id"),
			})
		}
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, profile)
}

func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapDeleteProfiles)
	if !ok {
		return
	}

	if err := h.Service.DeleteProfile(c.Request.Context(), principal.Scope(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "profile deleted"})
}

type shareProfileRequest struct {
	CompanyID string `json:"company_id" binding:"required,uuid"`
}

// ShareProfile associates a profile with an additional company
// (super-principal only; see ProfileService.ShareProfile).
func (h *ProfileHandler) ShareProfile(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapAdminCompany)
	if !ok {
		return
	}

	var req shareProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, authz.ErrInvalidInput.Error())
		return
	}

	if err := h.Service.ShareProfile(c.Request.Context(), principal, c.Param("id"), req.CompanyID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "profile shared"})
}
