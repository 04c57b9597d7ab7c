// Package exclusive exposes the directory's exclusive lock over HTTP and
// guards writes while another user holds it.
package exclusive

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikepea/diradmin/pkg/diradmin/apierr"
	"github.com/mikepea/diradmin/pkg/diradmin/auth"
	"github.com/mikepea/diradmin/pkg/diradmin/directory"
)

// Handler handles exclusive lock requests
type Handler struct {
	svc *directory.Service
	log *zap.Logger
}

// NewHandler creates a new exclusive lock handler
func NewHandler(svc *directory.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log.Named("exclusive")}
}

// LockRequest names the user to lock the directory for. The caller is used when empty.
type LockRequest struct {
	UserID string `json:"user_id"`
}

// Get returns the lock holder, or {"locked": false}
func (h *Handler) Get(c *gin.Context) {
	holder, err := h.svc.FindExclusiveUser(c.Request.Context())
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	if holder == nil {
		c.JSON(http.StatusOK, gin.H{"locked": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"locked": true, "holder": holder})
}

// Set takes the exclusive lock
func (h *Handler) Set(c *gin.Context) {
	var req LockRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.UserID == "" {
		req.UserID, _ = auth.GetUserID(c)
	}

	if err := h.svc.SetExclusiveUser(c.Request.Context(), req.UserID); err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Directory locked"})
}

// Reset releases the exclusive lock
func (h *Handler) Reset(c *gin.Context) {
	if err := h.svc.ResetExclusiveUser(c.Request.Context()); err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Directory unlocked"})
}

// RegisterRoutes registers exclusive lock routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Get)
	rg.POST("", h.Set)
	rg.DELETE("", h.Reset)
}
