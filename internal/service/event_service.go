package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campuskit/eventdesk/internal/dto"
	"github.com/campuskit/eventdesk/internal/models"
	"github.com/campuskit/eventdesk/internal/repository"
	appErrors "github.com/campuskit/eventdesk/pkg/errors"
)

type eventStore interface {
	Create(ctx context.Context, event *models.EventRequest) error
	GetDetail(ctx context.Context, id int64, committeeID *int64) (*models.EventDetail, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, error)
	UpdateMentorDecision(ctx context.Context, eventID, committeeID int64, status models.DecisionStatus, comment *string) error
	UpdateHandlerDecision(ctx context.Context, eventID int64, status models.DecisionStatus, comment *string) error
	UpdateAdminDecision(ctx context.Context, params repository.AdminDecisionParams) error
	GetAdminView(ctx context.Context, id int64) (*repository.AdminView, error)
	Delete(ctx context.Context, id int64) error
}

// DecisionNotifier delivers decision emails. Implementations are
// fire-and-forget: the service never waits on or fails from delivery.
type DecisionNotifier interface {
	NotifyDecision(to, eventName string, decision models.EventStatus, comment *string)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// decisionApplier persists one role's verdict. Each applier owns its
// authorization predicate; the mentor variant scopes the write to the
// caller's committee, the handler variant is global.
type decisionApplier func(ctx context.Context, eventID int64, actor *models.JWTClaims, status models.DecisionStatus, comment *string) error

// EventService validates and applies role-scoped decisions to event
// requests, enforcing who may transition what and when.
//
// The admin approval gate reads subordinate statuses at call time only; a
// subordinate verdict flipped to rejected afterwards does not revoke a prior
// admin approval.
type EventService struct {
	repo     eventStore
	audit    auditLogger
	notifier DecisionNotifier
	cache    cacheInvalidator
	logger   *zap.Logger
	appliers map[models.UserRole]decisionApplier
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// NewEventService constructs the service.
func NewEventService(repo eventStore, audit auditLogger, notifier DecisionNotifier, cache cacheInvalidator, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &EventService{
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		cache:    cache,
		logger:   logger,
	}
	s.appliers = map[models.UserRole]decisionApplier{
		models.RoleMentor: func(ctx context.Context, eventID int64, actor *models.JWTClaims, status models.DecisionStatus, comment *string) error {
			if actor.CommitteeID == nil {
				return appErrors.Clone(appErrors.ErrForbidden, "mentor has no committee assignment")
			}
			return s.repo.UpdateMentorDecision(ctx, eventID, *actor.CommitteeID, status, comment)
		},
		models.RoleEventHandler: func(ctx context.Context, eventID int64, actor *models.JWTClaims, status models.DecisionStatus, comment *string) error {
			return s.repo.UpdateHandlerDecision(ctx, eventID, status, comment)
		},
	}
	return s
}

// Submit stores a new event request with every decision field pending.
func (s *EventService) Submit(ctx context.Context, req dto.CreateEventRequest, actor *models.JWTClaims) (*models.EventDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.CommitteeID == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "submitter has no committee assignment")
	}
	dateFrom, dateTo, err := parseDateRange(req.DateFrom, req.DateTo)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.EventName) == "" || strings.TrimSpace(req.Venue) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event_name and venue are required")
	}

	event := &models.EventRequest{
		UserID:               actor.UserID,
		CommitteeID:          *actor.CommitteeID,
		EventName:            strings.TrimSpace(req.EventName),
		Venue:                strings.TrimSpace(req.Venue),
		DateFrom:             dateFrom,
		DateTo:               dateTo,
		TimeSlot:             req.TimeSlot,
		Duration:             req.Duration,
		ExtraRequirements:    req.ExtraRequirements,
		CateringRequirements: req.CateringRequirements,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	s.emitAudit(ctx, actor.UserID, models.AuditActionEventSubmit, event.ID, map[string]interface{}{
		"event_name": event.EventName,
		"venue":      event.Venue,
	})
	s.invalidateDashboard(ctx)

	return s.repo.GetDetail(ctx, event.ID, nil)
}

// RecordDecision applies a mentor or handler verdict through the role's
// applier. The same verdict recorded twice is a plain overwrite with an
// identical result, never an error.
func (s *EventService) RecordDecision(ctx context.Context, role models.UserRole, eventID int64, req dto.DecisionRequest, actor *models.JWTClaims) (*models.EventDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	apply, ok := s.appliers[role]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not record decisions")
	}

	status, err := verdictToStatus(req.Action)
	if err != nil {
		return nil, err
	}
	comment := optionalComment(req.Comment)

	if err := apply(ctx, eventID, actor, status, comment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}

	action := models.AuditActionMentorDecision
	if role == models.RoleEventHandler {
		action = models.AuditActionHandlerDecision
	}
	s.emitAudit(ctx, actor.UserID, action, eventID, map[string]interface{}{
		"verdict": string(req.Action),
	})
	s.invalidateDashboard(ctx)

	return s.repo.GetDetail(ctx, eventID, scopeFor(actor))
}

// RecordAdminDecision applies the administrator's named status. Approval is
// gated on both subordinate approvals being true at this call; rejection of
// an already-rejected event is refused, while moving a rejected event back
// to approved is the supported reverse-rejection path. The decision email is
// queued only here and only after the state change lands.
func (s *EventService) RecordAdminDecision(ctx context.Context, eventID int64, req dto.AdminDecisionRequest, actor *models.JWTClaims) (*models.EventDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !models.ValidEventStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status name: "+string(req.Status))
	}

	view, err := s.repo.GetAdminView(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	if req.Status == models.EventStatusApproved {
		if view.MentorStatus != models.DecisionApproved || view.HandlerStatus != models.DecisionApproved {
			return nil, appErrors.WithDetails(appErrors.ErrPreconditionFailed,
				"event requires approval from both mentor and handler",
				map[string]interface{}{
					"mentor_status":  string(view.MentorStatus),
					"handler_status": string(view.HandlerStatus),
				})
		}
	}
	if req.Status == models.EventStatusRejected && view.Status == models.EventStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "event is already rejected")
	}

	comment := optionalComment(req.Comment)
	params := repository.AdminDecisionParams{
		EventID:             eventID,
		Status:              req.Status,
		Comment:             comment,
		RequireSubApprovals: req.Status == models.EventStatusApproved,
		ForbidReReject:      req.Status == models.EventStatusRejected,
	}
	if err := s.repo.UpdateAdminDecision(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The in-memory check passed but the conditional write lost to a
			// concurrent change of the gating columns.
			return nil, appErrors.Clone(appErrors.ErrConflict, "event state changed, retry the decision")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event status")
	}

	if s.notifier != nil && view.CommitteeEmail != "" {
		s.notifier.NotifyDecision(view.CommitteeEmail, view.EventName, req.Status, comment)
	}

	s.emitAudit(ctx, actor.UserID, models.AuditActionAdminDecision, eventID, map[string]interface{}{
		"status": string(req.Status),
	})
	s.invalidateDashboard(ctx)

	return s.repo.GetDetail(ctx, eventID, nil)
}

// Delete hard-deletes an event request.
func (s *EventService) Delete(ctx context.Context, eventID int64, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.repo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionEventDelete, eventID, nil)
	s.invalidateDashboard(ctx)
	return nil
}

// List returns events visible to the actor: students see their own
// submissions, mentors their committee's, handlers and admins everything.
// A positive limit pages the listing; zero returns every visible event.
func (s *EventService) List(ctx context.Context, statuses []models.EventStatus, limit, offset int, actor *models.JWTClaims) ([]models.EventDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.EventFilter{Status: statuses, Limit: limit, Offset: offset}
	switch actor.Role {
	case models.RoleStudent:
		filter.UserID = actor.UserID
	case models.RoleMentor:
		if actor.CommitteeID == nil {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "mentor has no committee assignment")
		}
		filter.CommitteeID = actor.CommitteeID
	case models.RoleEventHandler, models.RoleAdmin:
		// full visibility
	default:
		return nil, appErrors.ErrForbidden
	}
	events, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// Get returns a single event respecting the actor's scope. A mentor probing
// another committee's event and a missing id are indistinguishable.
func (s *EventService) Get(ctx context.Context, eventID int64, actor *models.JWTClaims) (*models.EventDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	detail, err := s.repo.GetDetail(ctx, eventID, scopeFor(actor))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if actor.Role == models.RoleStudent && detail.UserID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	return detail, nil
}

// scopeFor restricts detail lookups to the mentor's committee; all other
// roles read unscoped.
func scopeFor(actor *models.JWTClaims) *int64 {
	if actor != nil && actor.Role == models.RoleMentor {
		return actor.CommitteeID
	}
	return nil
}

func verdictToStatus(action dto.Verdict) (models.DecisionStatus, error) {
	switch action {
	case dto.VerdictApprove:
		return models.DecisionApproved, nil
	case dto.VerdictReject:
		return models.DecisionRejected, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "action must be approve or reject")
}

func optionalComment(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *EventService) emitAudit(ctx context.Context, userID, action string, eventID int64, values map[string]interface{}) {
	if s.audit == nil {
		return
	}
	resourceID := strconv.FormatInt(eventID, 10)
	var payload []byte
	if values != nil {
		payload, _ = json.Marshal(values)
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "event",
		ResourceID: &resourceID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "event-service",
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func (s *EventService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func parseDateRange(from, to string) (time.Time, time.Time, error) {
	dateFrom, err := time.Parse(dto.DateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date_from must be formatted as "+dto.DateLayout)
	}
	dateTo, err := time.Parse(dto.DateLayout, to)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date_to must be formatted as "+dto.DateLayout)
	}
	if dateFrom.After(dateTo) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date_from must not be after date_to")
	}
	return dateFrom, dateTo, nil
}
