package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campuskit/eventdesk/internal/dto"
	"github.com/campuskit/eventdesk/internal/models"
	"github.com/campuskit/eventdesk/internal/repository"
	appErrors "github.com/campuskit/eventdesk/pkg/errors"
)

type eventRepoStub struct {
	events         map[int64]*models.EventRequest
	committeeEmail map[int64]string
	nextID         int64
	raceOnAdmin    bool
	lastFilter     models.EventFilter
}

func newEventRepoStub() *eventRepoStub {
	return &eventRepoStub{
		events:         make(map[int64]*models.EventRequest),
		committeeEmail: make(map[int64]string),
		nextID:         1,
	}
}

func (s *eventRepoStub) seed(event models.EventRequest) int64 {
	id := s.nextID
	s.nextID++
	event.ID = id
	if event.Status == "" {
		event.Status = models.EventStatusPending
	}
	if event.MentorStatus == "" {
		event.MentorStatus = models.DecisionPending
	}
	if event.HandlerStatus == "" {
		event.HandlerStatus = models.DecisionPending
	}
	s.events[id] = &event
	return id
}

func (s *eventRepoStub) Create(ctx context.Context, event *models.EventRequest) error {
	event.ID = s.nextID
	s.nextID++
	event.Status = models.EventStatusPending
	event.MentorStatus = models.DecisionPending
	event.HandlerStatus = models.DecisionPending
	copy := *event
	s.events[event.ID] = &copy
	return nil
}

func (s *eventRepoStub) GetDetail(ctx context.Context, id int64, committeeID *int64) (*models.EventDetail, error) {
	event, ok := s.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if committeeID != nil && event.CommitteeID != *committeeID {
		return nil, sql.ErrNoRows
	}
	return &models.EventDetail{EventRequest: *event}, nil
}

func (s *eventRepoStub) List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, error) {
	s.lastFilter = filter
	var result []models.EventDetail
	for _, event := range s.events {
		if filter.UserID != "" && event.UserID != filter.UserID {
			continue
		}
		if filter.CommitteeID != nil && event.CommitteeID != *filter.CommitteeID {
			continue
		}
		result = append(result, models.EventDetail{EventRequest: *event})
	}
	return result, nil
}

func (s *eventRepoStub) UpdateMentorDecision(ctx context.Context, eventID, committeeID int64, status models.DecisionStatus, comment *string) error {
	event, ok := s.events[eventID]
	if !ok || event.CommitteeID != committeeID {
		return sql.ErrNoRows
	}
	event.MentorStatus = status
	event.MentorComment = comment
	return nil
}

func (s *eventRepoStub) UpdateHandlerDecision(ctx context.Context, eventID int64, status models.DecisionStatus, comment *string) error {
	event, ok := s.events[eventID]
	if !ok {
		return sql.ErrNoRows
	}
	event.HandlerStatus = status
	event.HandlerComment = comment
	return nil
}

func (s *eventRepoStub) UpdateAdminDecision(ctx context.Context, params repository.AdminDecisionParams) error {
	event, ok := s.events[params.EventID]
	if !ok {
		return sql.ErrNoRows
	}
	if s.raceOnAdmin {
		return sql.ErrNoRows
	}
	if params.RequireSubApprovals &&
		(event.MentorStatus != models.DecisionApproved || event.HandlerStatus != models.DecisionApproved) {
		return sql.ErrNoRows
	}
	if params.ForbidReReject && event.Status == models.EventStatusRejected {
		return sql.ErrNoRows
	}
	event.Status = params.Status
	event.AdminComment = params.Comment
	return nil
}

func (s *eventRepoStub) GetAdminView(ctx context.Context, id int64) (*repository.AdminView, error) {
	event, ok := s.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &repository.AdminView{
		ID:             event.ID,
		EventName:      event.EventName,
		Status:         event.Status,
		MentorStatus:   event.MentorStatus,
		HandlerStatus:  event.HandlerStatus,
		CommitteeEmail: s.committeeEmail[event.CommitteeID],
	}, nil
}

func (s *eventRepoStub) Delete(ctx context.Context, id int64) error {
	if _, ok := s.events[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.events, id)
	return nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type notifierStub struct {
	sent []notifierCall
}

type notifierCall struct {
	to        string
	eventName string
	decision  models.EventStatus
}

func (n *notifierStub) NotifyDecision(to, eventName string, decision models.EventStatus, comment *string) {
	n.sent = append(n.sent, notifierCall{to: to, eventName: eventName, decision: decision})
}

func int64Ptr(v int64) *int64 { return &v }

func mentorClaims(committeeID int64) *models.JWTClaims {
	return &models.JWTClaims{UserID: "mentor-1", Role: models.RoleMentor, CommitteeID: int64Ptr(committeeID)}
}

func handlerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "handler-1", Role: models.RoleEventHandler}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func studentClaims(userID string, committeeID int64) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleStudent, CommitteeID: int64Ptr(committeeID)}
}

func baseEvent(committeeID int64) models.EventRequest {
	return models.EventRequest{
		UserID:      "student-1",
		CommitteeID: committeeID,
		EventName:   "Tech Symposium",
		Venue:       "Library",
		DateFrom:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DateTo:      time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		TimeSlot:    "morning",
	}
}

func TestEventServiceSubmit(t *testing.T) {
	repo := newEventRepoStub()
	audit := &auditStub{}
	svc := NewEventService(repo, audit, nil, nil, nil)

	detail, err := svc.Submit(context.Background(), dto.CreateEventRequest{
		EventName: "Tech Symposium",
		Venue:     "Canopy",
		DateFrom:  "2024-03-01",
		DateTo:    "2024-03-05",
		TimeSlot:  "morning",
		Duration:  "4h",
	}, studentClaims("student-1", 2))

	require.NoError(t, err)
	require.Equal(t, models.EventStatusPending, detail.Status)
	require.Equal(t, models.DecisionPending, detail.MentorStatus)
	require.Equal(t, models.DecisionPending, detail.HandlerStatus)
	require.Equal(t, int64(2), detail.CommitteeID)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionEventSubmit, audit.logs[0].Action)
}

func TestEventServiceSubmitRejectsInvertedDates(t *testing.T) {
	svc := NewEventService(newEventRepoStub(), nil, nil, nil, nil)

	_, err := svc.Submit(context.Background(), dto.CreateEventRequest{
		EventName: "Tech Symposium",
		Venue:     "Canopy",
		DateFrom:  "2024-03-10",
		DateTo:    "2024-03-05",
	}, studentClaims("student-1", 2))

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEventServiceMentorDecisionScopedToCommittee(t *testing.T) {
	repo := newEventRepoStub()
	id := repo.seed(baseEvent(2))
	svc := NewEventService(repo, &auditStub{}, nil, nil, nil)

	_, err := svc.RecordDecision(context.Background(), models.RoleMentor, id,
		dto.DecisionRequest{Action: dto.VerdictApprove}, mentorClaims(7))

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	require.Equal(t, models.DecisionPending, repo.events[id].MentorStatus)
}

func TestEventServiceMentorDecisionIdempotent(t *testing.T) {
	repo := newEventRepoStub()
	id := repo.seed(baseEvent(2))
	svc := NewEventService(repo, &auditStub{}, nil, nil, nil)

	req := dto.DecisionRequest{Action: dto.VerdictApprove, Comment: "looks good"}
	first, err := svc.RecordDecision(context.Background(), models.RoleMentor, id, req, mentorClaims(2))
	require.NoError(t, err)
	second, err := svc.RecordDecision(context.Background(), models.RoleMentor, id, req, mentorClaims(2))
	require.NoError(t, err)

	require.Equal(t, models.DecisionApproved, first.MentorStatus)
	require.Equal(t, first.MentorStatus, second.MentorStatus)
	require.Equal(t, first.MentorComment, second.MentorComment)
}

func TestEventServiceHandlerDecisionIgnoresCommittee(t *testing.T) {
	repo := newEventRepoStub()
	id := repo.seed(baseEvent(2))
	svc := NewEventService(repo, &auditStub{}, nil, nil, nil)

	detail, err := svc.RecordDecision(context.Background(), models.RoleEventHandler, id,
		dto.DecisionRequest{Action: dto.VerdictReject, Comment: "venue too small"}, handlerClaims())

	require.NoError(t, err)
	require.Equal(t, models.DecisionRejected, detail.HandlerStatus)
	require.NotNil(t, detail.HandlerComment)
	require.Equal(t, "venue too small", *detail.HandlerComment)
}

func TestEventServiceDecisionRejectsUnknownVerdict(t *testing.T) {
	repo := newEventRepoStub()
	id := repo.seed(baseEvent(2))
	svc := NewEventService(repo, &auditStub{}, nil, nil, nil)

	_, err := svc.RecordDecision(context.Background(), models.RoleMentor, id,
		dto.DecisionRequest{Action: "maybe"}, mentorClaims(2))

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEventServiceAdminApproveRequiresBothSubApprovals(t *testing.T) {
	repo := newEventRepoStub()
	event := baseEvent(2)
	event.MentorStatus = models.DecisionApproved
	id := repo.seed(event)
	notifier := &notifierStub{}
	svc := NewEventService(repo, &auditStub{}, notifier, nil, nil)

	_, err := svc.RecordAdminDecision(context.Background(), id,
		dto.AdminDecisionRequest{Status: models.EventStatusApproved}, adminClaims())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	require.Equal(t, "approved", appErr.Details["mentor_status"])
	require.Equal(t, "pending", appErr.Details["handler_status"])
	require.Equal(t, models.EventStatusPending, repo.events[id].Status)
	require.Empty(t, notifier.sent)
}

func TestEventServiceAdminApproveSucceedsAndNotifies(t *testing.T) {
	repo := newEventRepoStub()
	repo.committeeEmail[2] = "robotics@college.edu"
	event := baseEvent(2)
	event.MentorStatus = models.DecisionApproved
	event.HandlerStatus = models.DecisionApproved
	id := repo.seed(event)
	notifier := &notifierStub{}
	audit := &auditStub{}
	svc := NewEventService(repo, audit, notifier, nil, nil)

	detail, err := svc.RecordAdminDecision(context.Background(), id,
		dto.AdminDecisionRequest{Status: models.EventStatusApproved}, adminClaims())

	require.NoError(t, err)
	require.Equal(t, models.EventStatusApproved, detail.Status)
	require.Len(t, notifier.sent, 1)
	require.Equal(t, "robotics@college.edu", notifier.sent[0].to)
	require.Equal(t, models.EventStatusApproved, notifier.sent[0].decision)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionAdminDecision, audit.logs[0].Action)
}

func TestEventServiceAdminRejectWithoutSubApprovals(t *testing.T) {
	repo := newEventRepoStub()
	repo.committeeEmail[2] = "robotics@college.edu"
	id := repo.seed(baseEvent(2))
	notifier := &notifierStub{}
	svc := NewEventService(repo, &auditStub{}, notifier, nil, nil)

	detail, err := svc.RecordAdminDecision(context.Background(), id,
		dto.AdminDecisionRequest{Status: models.EventStatusRejected, Comment: "clashes with exams"}, adminClaims())

	require.NoError(t, err)
	require.Equal(t, models.EventStatusRejected, detail.Status)
	require.Len(t, notifier.sent, 1)
	require.Equal(t, models.EventStatusRejected, notifier.sent[0].decision)
}

func TestEventServiceAdminReRejectForbidden(t *testing.T) {
	repo := newEventRepoStub()
	event := baseEvent(2)
	event.Status = models.EventStatusRejected
	id := repo.seed(event)
	notifier := &notifierStub{}
	svc := NewEventService(repo, &auditStub{}, notifier, nil, nil)

	_, err := svc.RecordAdminDecision(context.Background(), id,
		dto.AdminDecisionRequest{Status: models.EventStatusRejected}, adminClaims())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	require.Empty(t, notifier.sent)
}

func TestEventServiceAdminRejectedToApproved(t *testing.T) {
	repo := newEventRepoStub()
	event := baseEvent(2)
	event.Status = models.EventStatusRejected
	event.MentorStatus = models.DecisionApproved
	event.HandlerStatus = models.DecisionApproved
	id := repo.seed(event)
	svc := NewEventService(repo, &auditStub{}, &notifierStub{}, nil, nil)

	detail, err := svc.RecordAdminDecision(context.Background(), id,
		dto.AdminDecisionRequest{Status: models.EventStatusApproved}, adminClaims())

	require.NoError(t, err)
	require.Equal(t, models.EventStatusApproved, detail.Status)
}

func TestEventServiceAdminUnknownStatus(t *testing.T) {
	repo := newEventRepoStub()
	id := repo.seed(baseEvent(2))
	svc := NewEventService(repo, &auditStub{}, nil, nil, nil)

	_, err := svc.RecordAdminDecision(context.Background(), id,
		dto.AdminDecisionRequest{Status: "Cancelled"}, adminClaims())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEventServiceAdminDecisionLostRace(t *testing.T) {
	repo := newEventRepoStub()
	event := baseEvent(2)
	event.MentorStatus = models.DecisionApproved
	event.HandlerStatus = models.DecisionApproved
	id := repo.seed(event)
	repo.raceOnAdmin = true
	svc := NewEventService(repo, &auditStub{}, &notifierStub{}, nil, nil)

	_, err := svc.RecordAdminDecision(context.Background(), id,
		dto.AdminDecisionRequest{Status: models.EventStatusApproved}, adminClaims())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestEventServiceAdminDecisionMissingEvent(t *testing.T) {
	svc := NewEventService(newEventRepoStub(), &auditStub{}, nil, nil, nil)

	_, err := svc.RecordAdminDecision(context.Background(), 42,
		dto.AdminDecisionRequest{Status: models.EventStatusApproved}, adminClaims())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestEventServiceDeleteMissing(t *testing.T) {
	svc := NewEventService(newEventRepoStub(), &auditStub{}, nil, nil, nil)

	err := svc.Delete(context.Background(), 42, adminClaims())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestEventServiceDelete(t *testing.T) {
	repo := newEventRepoStub()
	id := repo.seed(baseEvent(2))
	audit := &auditStub{}
	svc := NewEventService(repo, audit, nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), id, adminClaims()))
	require.NotContains(t, repo.events, id)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionEventDelete, audit.logs[0].Action)
}

func TestEventServiceListScoping(t *testing.T) {
	repo := newEventRepoStub()
	mine := baseEvent(2)
	mine.UserID = "student-1"
	repo.seed(mine)
	other := baseEvent(3)
	other.UserID = "student-2"
	repo.seed(other)
	svc := NewEventService(repo, &auditStub{}, nil, nil, nil)

	asStudent, err := svc.List(context.Background(), nil, 0, 0, studentClaims("student-1", 2))
	require.NoError(t, err)
	require.Len(t, asStudent, 1)
	require.Equal(t, "student-1", asStudent[0].UserID)

	asMentor, err := svc.List(context.Background(), nil, 0, 0, mentorClaims(3))
	require.NoError(t, err)
	require.Len(t, asMentor, 1)
	require.Equal(t, int64(3), asMentor[0].CommitteeID)

	asAdmin, err := svc.List(context.Background(), nil, 0, 0, adminClaims())
	require.NoError(t, err)
	require.Len(t, asAdmin, 2)
}

func TestEventServiceListCarriesPagination(t *testing.T) {
	repo := newEventRepoStub()
	repo.seed(baseEvent(2))
	svc := NewEventService(repo, &auditStub{}, nil, nil, nil)

	_, err := svc.List(context.Background(), nil, 25, 75, adminClaims())
	require.NoError(t, err)
	require.Equal(t, 25, repo.lastFilter.Limit)
	require.Equal(t, 75, repo.lastFilter.Offset)

	_, err = svc.List(context.Background(), nil, 0, 0, adminClaims())
	require.NoError(t, err)
	require.Zero(t, repo.lastFilter.Limit)
}

func TestEventServiceGetHidesForeignEvents(t *testing.T) {
	repo := newEventRepoStub()
	event := baseEvent(2)
	event.UserID = "student-2"
	id := repo.seed(event)
	svc := NewEventService(repo, &auditStub{}, nil, nil, nil)

	_, err := svc.Get(context.Background(), id, studentClaims("student-1", 2))
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	_, err = svc.Get(context.Background(), id, mentorClaims(7))
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	detail, err := svc.Get(context.Background(), id, handlerClaims())
	require.NoError(t, err)
	require.Equal(t, id, detail.ID)
}

func TestEventServiceDecisionUnknownRole(t *testing.T) {
	repo := newEventRepoStub()
	id := repo.seed(baseEvent(2))
	svc := NewEventService(repo, &auditStub{}, nil, nil, nil)

	_, err := svc.RecordDecision(context.Background(), models.RoleStudent, id,
		dto.DecisionRequest{Action: dto.VerdictApprove}, studentClaims("student-1", 2))

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}
