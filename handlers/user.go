package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/painelbi/painel/authz"
	"github.com/painelbi/painel/db"
	"github.com/painelbi/painel/services"
)

type UserHandler struct {
	Service *services.UserService
	Audit   authz.AuditSink
}

func NewUserHandler(service *services.UserService, audit authz.AuditSink) *UserHandler {
	return &UserHandler{Service: service, Audit: audit}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapViewUsers)
	if !ok {
		return
	}

	users, err := h.Service.ListUsers(c.Request.Context(), principal.Scope())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapViewUsers)
	if !ok {
		return
	}

	user, err := h.Service.GetUser(c.Request.Context(), principal.Scope(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapCreateUsers)
	if !ok {
		return
	}

	var req db.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, authz.ErrInvalidInput.Error())
		return
	}

	user, err := h.Service.CreateUser(c.Request.Context(), principal, req)
	if err != nil {
		if err == authz.ErrElevationDenied && h.Audit != nil {
			h.Audit.Record(c.Request.Context(), authz.AuditEvent{
				Type:        "elevation_denied",
				PrincipalID: principal.ID,
				Detail:      "create user",
			})
		}
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapEditUsers)
	if !ok {
		return
	}

	var req db.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, authz.ErrInvalidInput.Error())
		return
	}

	user, err := h.Service.UpdateUser(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		if err == authz.ErrElevationDenied && h.Audit != nil {
			h.Audit.Record(c.Request.Context(), authz.AuditEvent{
				Type:        "elevation_denied",
				PrincipalID: principal.ID,
				Detail:      "update user " + c.Param("id"),
			})
		}
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	principal, ok := authorize(c, h.Audit, authz.CapDeleteUsers)
	if !ok {
		return
	}

	// Self-deactivation would strand the tenant's admin account.
	if c.Param("id") == principal.ID {
		respondError(c, http.StatusBadRequest, authz.ErrInvalidInput.Error())
		return
	}

	if err := h.Service.DeleteUser(c.Request.Context(), principal.Scope(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "user deactivated"})
}
