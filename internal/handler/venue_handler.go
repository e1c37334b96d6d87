package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/eventdesk/internal/dto"
	appErrors "github.com/campuskit/eventdesk/pkg/errors"
	"github.com/campuskit/eventdesk/pkg/response"
)

type venueService interface {
	CheckAvailability(ctx context.Context, req dto.VenueCheckRequest) (*dto.VenueCheckResponse, error)
}

// VenueHandler exposes venue availability checks.
type VenueHandler struct {
	service venueService
}

// NewVenueHandler constructs the handler.
func NewVenueHandler(service venueService) *VenueHandler {
	return &VenueHandler{service: service}
}

// CheckAvailability godoc
// @Summary Check whether a venue is free for a date range
// @Tags Venues
// @Accept json
// @Produce json
// @Param payload body dto.VenueCheckRequest true "Venue and date range"
// @Success 200 {object} response.Envelope
// @Router /venues/check-availability [post]
func (h *VenueHandler) CheckAvailability(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "venue service not configured"))
		return
	}
	var req dto.VenueCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid availability payload"))
		return
	}
	result, err := h.service.CheckAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
