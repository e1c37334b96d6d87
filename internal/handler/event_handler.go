package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/eventdesk/internal/dto"
	"github.com/campuskit/eventdesk/internal/models"
	appErrors "github.com/campuskit/eventdesk/pkg/errors"
	"github.com/campuskit/eventdesk/pkg/response"
)

type eventService interface {
	Submit(ctx context.Context, req dto.CreateEventRequest, actor *models.JWTClaims) (*models.EventDetail, error)
	List(ctx context.Context, statuses []models.EventStatus, limit, offset int, actor *models.JWTClaims) ([]models.EventDetail, error)
	Get(ctx context.Context, eventID int64, actor *models.JWTClaims) (*models.EventDetail, error)
	RecordDecision(ctx context.Context, role models.UserRole, eventID int64, req dto.DecisionRequest, actor *models.JWTClaims) (*models.EventDetail, error)
	RecordAdminDecision(ctx context.Context, eventID int64, req dto.AdminDecisionRequest, actor *models.JWTClaims) (*models.EventDetail, error)
	Delete(ctx context.Context, eventID int64, actor *models.JWTClaims) error
}

// EventHandler exposes REST endpoints for the event request workflow.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs the handler.
func NewEventHandler(service eventService) *EventHandler {
	return &EventHandler{service: service}
}

func parseEventStatus(value string) (models.EventStatus, bool) {
	switch strings.ToLower(value) {
	case "pending":
		return models.EventStatusPending, true
	case "approved":
		return models.EventStatusApproved, true
	case "rejected":
		return models.EventStatusRejected, true
	}
	return "", false
}

func eventIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "event id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// Create godoc
// @Summary Submit an event request
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "event service not configured"))
		return
	}
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid event payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	event, err := h.service.Submit(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, event, nil)
}

// List godoc
// @Summary List event requests visible to the caller
// @Tags Events
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param limit query int false "Page size"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "event service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var statuses []models.EventStatus
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			status, ok := parseEventStatus(part)
			if !ok {
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status name: "+part))
				return
			}
			statuses = append(statuses, status)
		}
	}
	limit := 50
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		offset = v
	}
	events, err := h.service.List(c.Request.Context(), statuses, limit, offset, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	if events == nil {
		events = []models.EventDetail{}
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Get godoc
// @Summary Get event request detail
// @Tags Events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "event service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	event, err := h.service.Get(c.Request.Context(), id, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// MentorDecision godoc
// @Summary Record the committee mentor's verdict
// @Tags Events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param payload body dto.DecisionRequest true "Verdict"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/mentor-decision [post]
func (h *EventHandler) MentorDecision(c *gin.Context) {
	h.decision(c, models.RoleMentor)
}

// HandlerDecision godoc
// @Summary Record the event handler's verdict
// @Tags Events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param payload body dto.DecisionRequest true "Verdict"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/handler-decision [post]
func (h *EventHandler) HandlerDecision(c *gin.Context) {
	h.decision(c, models.RoleEventHandler)
}

func (h *EventHandler) decision(c *gin.Context, role models.UserRole) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "event service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	event, err := h.service.RecordDecision(c.Request.Context(), role, id, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// AdminDecision godoc
// @Summary Record the administrator's final decision
// @Tags Events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param payload body dto.AdminDecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/admin-decision [post]
func (h *EventHandler) AdminDecision(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "event service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	var req dto.AdminDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	event, err := h.service.RecordAdminDecision(c.Request.Context(), id, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Permanently remove an event request
// @Tags Events
// @Param id path int true "Event ID"
// @Success 204
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "event service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
