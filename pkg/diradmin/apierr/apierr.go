// Package apierr renders directory errors as JSON responses.
package apierr

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mikepea/diradmin/pkg/diradmin/directory"
)

// Status returns the HTTP status for err
func Status(err error) int {
	switch {
	case errors.Is(err, directory.ErrValidation),
		errors.Is(err, directory.ErrSearchKeyTooShort),
		errors.Is(err, directory.ErrWildcardNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, directory.ErrGroupNotFound),
		errors.Is(err, directory.ErrUnknownUser):
		return http.StatusNotFound
	case errors.Is(err, directory.ErrGroupHasMembers),
		errors.Is(err, directory.ErrAlreadyLocked):
		return http.StatusConflict
	case errors.Is(err, directory.ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as {"error": msg}. Server errors are logged and their
// details withheld from the client.
func Respond(c *gin.Context, log *zap.Logger, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	msg := err.Error()
	var derr *directory.Error
	if errors.As(err, &derr) {
		msg = derr.Msg
	}
	c.JSON(status, gin.H{"error": msg})
}
