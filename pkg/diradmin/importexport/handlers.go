package importexport

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikepea/diradmin/pkg/diradmin/apierr"
	"github.com/mikepea/diradmin/pkg/diradmin/directory"
)

// Handler handles import/export requests
type Handler struct {
	svc *directory.Service
	log *zap.Logger
}

// NewHandler creates a new import/export handler
func NewHandler(svc *directory.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log.Named("importexport")}
}

// Import loads a transfer document. The format comes from the format query
// parameter, or from a YAML Content-Type, and defaults to JSON.
func (h *Handler) Import(c *gin.Context) {
	format, err := requestFormat(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := directory.DecodeData(c.Request.Body, format)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	result, err := h.svc.ImportData(c.Request.Context(), data, c.Query("force") == "true")
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Export writes the whole directory as a transfer document
func (h *Handler) Export(c *gin.Context) {
	format, err := directory.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := h.svc.ExportData(c.Request.Context())
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	var buf bytes.Buffer
	if err := directory.EncodeData(&buf, data, format); err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	// Set content disposition for download
	if c.Query("download") == "true" {
		c.Header("Content-Disposition", "attachment; filename=diradmin-export."+string(format))
	}

	c.Data(http.StatusOK, contentType(format), buf.Bytes())
}

// RegisterRoutes registers import/export routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/import", h.Import)
	rg.GET("/export", h.Export)
}

func requestFormat(c *gin.Context) (directory.Format, error) {
	if f := c.Query("format"); f != "" {
		return directory.ParseFormat(f)
	}
	if strings.Contains(c.ContentType(), "yaml") {
		return directory.FormatYAML, nil
	}
	return directory.FormatJSON, nil
}

func contentType(format directory.Format) string {
	if format == directory.FormatYAML {
		return "application/yaml; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}
