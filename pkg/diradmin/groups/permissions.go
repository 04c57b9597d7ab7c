package groups

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mikepea/diradmin/pkg/diradmin/apierr"
)

// PermissionRequest names a permission to grant
type PermissionRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListPermissions returns the permissions that may still be granted to a group
func (h *Handler) ListPermissions(c *gin.Context) {
	name, ok := h.groupName(c)
	if !ok {
		return
	}

	perms, err := h.svc.PermissionsToAddForGroup(c.Request.Context(), name)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, perms)
}

// AddPermission grants a permission to a group
func (h *Handler) AddPermission(c *gin.Context) {
	name, ok := h.groupName(c)
	if !ok {
		return
	}

	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.AddPermissionForGroup(c.Request.Context(), name, req.Name); err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Permission added"})
}

// DeletePermission revokes a permission from a group
func (h *Handler) DeletePermission(c *gin.Context) {
	name, ok := h.groupName(c)
	if !ok {
		return
	}

	if err := h.svc.DeletePermissionForGroup(c.Request.Context(), name, c.Param("permission")); err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Permission deleted"})
}

// ListAdmins returns the administrators of a group
func (h *Handler) ListAdmins(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	admins, err := h.svc.GroupAdmins(c.Request.Context(), groupID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, admins)
}

// groupName resolves the :id path parameter to the group's name; permissions
// are keyed by name.
func (h *Handler) groupName(c *gin.Context) (string, bool) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return "", false
	}

	group, err := h.svc.FindGroupByID(c.Request.Context(), groupID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return "", false
	}
	if group == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return "", false
	}
	return group.Name, true
}

// RegisterPermissionRoutes registers permission and group admin routes
func (h *Handler) RegisterPermissionRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/permissions", h.ListPermissions)
	rg.POST("/:id/permissions", h.AddPermission)
	rg.DELETE("/:id/permissions/:permission", h.DeletePermission)
	rg.GET("/:id/admins", h.ListAdmins)
}
