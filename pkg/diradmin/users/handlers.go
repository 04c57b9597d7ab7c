package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikepea/diradmin/pkg/diradmin/apierr"
	"github.com/mikepea/diradmin/pkg/diradmin/auth"
	"github.com/mikepea/diradmin/pkg/diradmin/directory"
	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

// Handler handles user requests
type Handler struct {
	svc *directory.Service
	log *zap.Logger
}

// NewHandler creates a new users handler
func NewHandler(svc *directory.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log.Named("users")}
}

// UserRequest represents a request to create or update a user
type UserRequest struct {
	ID        string `json:"id" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
}

// List returns all users, or those matching the q search parameter
func (h *Handler) List(c *gin.Context) {
	var (
		users []models.User
		err   error
	)
	if q, ok := c.GetQuery("q"); ok {
		users, err = h.svc.FindUsersBySearchKey(c.Request.Context(), q)
	} else {
		users, err = h.svc.FindUsers(c.Request.Context())
	}
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// Create creates a user or overwrites an existing user's profile
func (h *Handler) Create(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := models.User{
		ID:        req.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Telephone: req.Telephone,
	}
	if err := h.svc.AddUser(c.Request.Context(), &user); err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": models.NormalizeUserID(req.ID)})
}

// Groups returns the groups a user belongs to
func (h *Handler) Groups(c *gin.Context) {
	groups, err := h.svc.FindGroupsByUserID(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

// GroupWithProperties returns the named group of a user together with its properties
func (h *Handler) GroupWithProperties(c *gin.Context) {
	group, err := h.svc.GroupWithPropertiesForUser(c.Request.Context(), c.Param("id"), c.Query("name"))
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

// IsAdmin reports whether the caller is a directory administrator
func (h *Handler) IsAdmin(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "admin": h.svc.IsAdmin(c.Request.Context(), userID)})
}

// ExecutePlugins runs the configured directory plugins
func (h *Handler) ExecutePlugins(c *gin.Context) {
	if err := h.svc.ExecutePlugins(c.Request.Context()); err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plugins executed"})
}

// RegisterRoutes registers user routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id/groups", h.Groups)
	rg.GET("/:id/group", h.GroupWithProperties)
}

// RegisterAdminRoutes registers the admin check and plugin routes
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin", h.IsAdmin)
	rg.POST("/plugins/execute", h.ExecutePlugins)
}
