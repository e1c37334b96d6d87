package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuskit/eventdesk/internal/models"
	"github.com/campuskit/eventdesk/pkg/jobs"
	"github.com/campuskit/eventdesk/pkg/mailer"
)

const jobTypeDecisionEmail = "decision_email"

type decisionEmailPayload struct {
	To        string
	EventName string
	Decision  models.EventStatus
	Comment   *string
}

// NotificationService delivers decision emails through a background worker
// pool. Enqueue failures and send failures are logged and swallowed; no
// caller ever observes a notification error.
type NotificationService struct {
	queue  *jobs.Queue
	mailer mailer.Mailer
	logger *zap.Logger
}

// NotificationConfig configures the worker pool behind the service.
type NotificationConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// NewNotificationService builds the service and its queue. Call Start before
// enqueuing and Stop on shutdown.
func NewNotificationService(m mailer.Mailer, cfg NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{mailer: m, logger: logger}
	s.queue = jobs.NewQueue(jobTypeDecisionEmail, s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifyDecision queues the decision email for the committee address.
func (s *NotificationService) NotifyDecision(to, eventName string, decision models.EventStatus, comment *string) {
	err := s.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: jobTypeDecisionEmail,
		Payload: decisionEmailPayload{
			To:        to,
			EventName: eventName,
			Decision:  decision,
			Comment:   comment,
		},
	})
	if err != nil {
		s.logger.Warn("failed to enqueue decision email",
			zap.String("to", to),
			zap.String("event_name", eventName),
			zap.Error(err))
	}
}

func (s *NotificationService) handle(_ context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(decisionEmailPayload)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	subject := fmt.Sprintf("Event request %s: %s", strings.ToLower(string(payload.Decision)), payload.EventName)
	body := fmt.Sprintf("Your event %q has been %s by the administration.",
		payload.EventName, strings.ToLower(string(payload.Decision)))
	if payload.Comment != nil && *payload.Comment != "" {
		body += "\n\nComment: " + *payload.Comment
	}

	if err := s.mailer.Send(payload.To, subject, body); err != nil {
		s.logger.Warn("failed to send decision email",
			zap.String("to", payload.To),
			zap.String("event_name", payload.EventName),
			zap.Error(err))
		return err
	}
	s.logger.Info("decision email sent",
		zap.String("to", payload.To),
		zap.String("event_name", payload.EventName),
		zap.String("decision", string(payload.Decision)))
	return nil
}
