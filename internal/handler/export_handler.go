package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/eventdesk/internal/models"
	"github.com/campuskit/eventdesk/internal/service"
	appErrors "github.com/campuskit/eventdesk/pkg/errors"
	"github.com/campuskit/eventdesk/pkg/response"
)

type exportService interface {
	ExportEvents(ctx context.Context, format service.ExportFormat, filter models.EventFilter) (*service.ExportResult, error)
}

// ExportHandler streams the event register as a downloadable file.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Events godoc
// @Summary Export event requests as CSV or PDF
// @Tags Exports
// @Produce octet-stream
// @Param format query string true "csv or pdf"
// @Success 200 {file} file
// @Router /exports/events [get]
func (h *ExportHandler) Events(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	format, err := service.ParseExportFormat(c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.ExportEvents(c.Request.Context(), format, models.EventFilter{})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
