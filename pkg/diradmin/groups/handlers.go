package groups

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikepea/diradmin/pkg/diradmin/apierr"
	"github.com/mikepea/diradmin/pkg/diradmin/directory"
	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

// Handler handles group-related requests
type Handler struct {
	svc *directory.Service
	log *zap.Logger
}

// NewHandler creates a new groups handler
func NewHandler(svc *directory.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log.Named("groups")}
}

// GroupRequest represents the request to create or update a group
type GroupRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	NodePath    string        `json:"node_path"`
	Domain      string        `json:"domain"`
	Repository  string        `json:"repository"`
	Props       []PropRequest `json:"props"`
}

// PropRequest is a single key/value property
type PropRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (r GroupRequest) toModel(id uint) *models.Group {
	g := &models.Group{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		NodePath:    r.NodePath,
		Domain:      r.Domain,
		Repository:  r.Repository,
		Props:       make([]models.Prop, len(r.Props)),
	}
	for i, p := range r.Props {
		g.Props[i] = models.Prop{Key: p.Key, Value: p.Value}
	}
	return g
}

// List returns all groups, or those matching the q search parameter
func (h *Handler) List(c *gin.Context) {
	var (
		groups []models.Group
		err    error
	)
	switch q, search := c.GetQuery("q"); {
	case search:
		groups, err = h.svc.FindGroupsBySearchKey(c.Request.Context(), q)
	case c.Query("exclude_admin") == "true":
		groups, err = h.svc.GroupsExceptAdminGroups(c.Request.Context())
	default:
		groups, err = h.svc.FindGroups(c.Request.Context())
	}
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

// Create creates a new group with its properties
func (h *Handler) Create(c *gin.Context) {
	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.svc.AddGroup(c.Request.Context(), req.toModel(0))
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Get returns a single group with its properties
func (h *Handler) Get(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	group, err := h.svc.FindGroupByID(c.Request.Context(), groupID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	if group == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	c.JSON(http.StatusOK, group)
}

// Update replaces a group's properties and updates its name, description
// and node path
func (h *Handler) Update(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.ModifyGroup(c.Request.Context(), req.toModel(groupID)); err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Group updated"})
}

// Delete deletes a group without members
func (h *Handler) Delete(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteGroupByID(c.Request.Context(), groupID); err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Group deleted"})
}

// RegisterRoutes registers group routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

func parseGroupID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return 0, false
	}
	return uint(id), true
}
