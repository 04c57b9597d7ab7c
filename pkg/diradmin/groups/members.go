package groups

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mikepea/diradmin/pkg/diradmin/apierr"
	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

// AddMemberRequest represents a request to add a member or change its type
type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Type   string `json:"type" binding:"required,oneof=ADMIN MEMBER"`
}

// ListMembers returns all members of a group with their profiles
func (h *Handler) ListMembers(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	members, err := h.svc.FindGroupUsersByGroupID(c.Request.Context(), groupID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

// AddMember adds a user to a group
func (h *Handler) AddMember(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.AddGroupUser(c.Request.Context(), groupID, req.UserID, models.MembershipType(req.Type))
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Member added"})
}

// RemoveMember removes a user from a group
func (h *Handler) RemoveMember(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteGroupUser(c.Request.Context(), groupID, c.Param("userId")); err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// RegisterMemberRoutes registers member routes
func (h *Handler) RegisterMemberRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/members", h.ListMembers)
	rg.POST("/:id/members", h.AddMember)
	rg.DELETE("/:id/members/:userId", h.RemoveMember)
}
