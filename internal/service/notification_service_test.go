package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campuskit/eventdesk/internal/models"
)

type mailerStub struct {
	mu       sync.Mutex
	sent     []sentMail
	failures int
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *mailerStub) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *mailerStub) delivered() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

func waitForDelivery(t *testing.T, m *mailerStub, want int) []sentMail {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := m.delivered(); len(got) >= want {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d delivered emails, got %d", want, len(m.delivered()))
	return nil
}

func TestNotificationServiceDeliversDecisionEmail(t *testing.T) {
	m := &mailerStub{}
	svc := NewNotificationService(m, NotificationConfig{Workers: 1, MaxRetries: 1, RetryDelay: 10 * time.Millisecond}, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	comment := "well prepared proposal"
	svc.NotifyDecision("robotics@campus.edu", "Tech Fair", models.EventStatusApproved, &comment)

	sent := waitForDelivery(t, m, 1)
	require.Equal(t, "robotics@campus.edu", sent[0].to)
	require.Equal(t, "Event request approved: Tech Fair", sent[0].subject)
	require.Contains(t, sent[0].body, `Your event "Tech Fair" has been approved`)
	require.Contains(t, sent[0].body, "Comment: well prepared proposal")
}

func TestNotificationServiceOmitsEmptyComment(t *testing.T) {
	m := &mailerStub{}
	svc := NewNotificationService(m, NotificationConfig{Workers: 1, MaxRetries: 0, RetryDelay: 10 * time.Millisecond}, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.NotifyDecision("robotics@campus.edu", "Tech Fair", models.EventStatusRejected, nil)

	sent := waitForDelivery(t, m, 1)
	require.Equal(t, "Event request rejected: Tech Fair", sent[0].subject)
	require.NotContains(t, sent[0].body, "Comment:")
}

func TestNotificationServiceRetriesFailedSend(t *testing.T) {
	m := &mailerStub{failures: 1}
	svc := NewNotificationService(m, NotificationConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond}, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.NotifyDecision("robotics@campus.edu", "Tech Fair", models.EventStatusApproved, nil)

	sent := waitForDelivery(t, m, 1)
	require.Len(t, sent, 1)
}
