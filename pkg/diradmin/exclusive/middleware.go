package exclusive

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikepea/diradmin/pkg/diradmin/apierr"
	"github.com/mikepea/diradmin/pkg/diradmin/auth"
	"github.com/mikepea/diradmin/pkg/diradmin/directory"
)

// RequireWriteAccess rejects mutating requests with 423 Locked while the
// exclusive lock is held by a user other than the caller
func RequireWriteAccess(svc *directory.Service, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		holder, err := svc.FindExclusiveUser(c.Request.Context())
		if err != nil {
			apierr.Respond(c, log, err)
			c.Abort()
			return
		}

		userID, _ := auth.GetUserID(c)
		if holder != nil && holder.UserID != userID {
			c.JSON(http.StatusLocked, gin.H{
				"error":  "Directory is exclusively locked by " + holder.UserID,
				"holder": holder.UserID,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
