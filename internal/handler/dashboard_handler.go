package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/eventdesk/internal/dto"
	"github.com/campuskit/eventdesk/internal/middleware"
	"github.com/campuskit/eventdesk/internal/models"
	appErrors "github.com/campuskit/eventdesk/pkg/errors"
	"github.com/campuskit/eventdesk/pkg/response"
)

type dashboardService interface {
	CommitteeStats(ctx context.Context) ([]models.CommitteeStats, bool, error)
	DemandingEvents(ctx context.Context) ([]dto.DemandingEvent, bool, error)
	SystemMetrics() models.SystemMetrics
	ListCommittees(ctx context.Context) ([]models.Committee, error)
}

// DashboardHandler serves aggregate views for the admin dashboard and the
// committee directory.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// CommitteeStats godoc
// @Summary Per-committee submission and approval counts
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/committee-stats [get]
func (h *DashboardHandler) CommitteeStats(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "dashboard service not configured"))
		return
	}
	stats, hit, err := h.service.CommitteeStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// DemandingEvents godoc
// @Summary Events with above-average requirements text
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/demanding-events [get]
func (h *DashboardHandler) DemandingEvents(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "dashboard service not configured"))
		return
	}
	events, hit, err := h.service.DemandingEvents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, events, nil, middleware.ExtractMeta(c))
}

// SystemMetrics godoc
// @Summary Aggregated runtime instrumentation snapshot
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/system-metrics [get]
func (h *DashboardHandler) SystemMetrics(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "dashboard service not configured"))
		return
	}
	response.JSON(c, http.StatusOK, h.service.SystemMetrics(), nil)
}

// ListCommittees godoc
// @Summary List registered committees
// @Tags Committees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /committees [get]
func (h *DashboardHandler) ListCommittees(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "dashboard service not configured"))
		return
	}
	committees, err := h.service.ListCommittees(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if committees == nil {
		committees = []models.Committee{}
	}
	response.JSON(c, http.StatusOK, committees, nil)
}
