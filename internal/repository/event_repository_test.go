package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/eventdesk/internal/models"
)

func newEventRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var eventDetailRowColumns = []string{
	"id", "user_id", "committee_id", "event_name", "date_filled", "venue",
	"date_from", "date_to", "time_slot", "duration", "extra_requirements", "catering_requirements",
	"status", "admin_comment", "mentor_status", "mentor_comment", "handler_status", "handler_comment",
	"submitted_by", "committee_name",
}

func eventDetailRow() *sqlmock.Rows {
	return sqlmock.NewRows(eventDetailRowColumns).
		AddRow(int64(7), "student-1", int64(2), "Tech Symposium", time.Now(), "Library",
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			"morning", "4h", "projector", "snacks",
			"Pending", nil, "pending", nil, "pending", nil,
			"asha", "Robotics Club")
}

func TestEventRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO events")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	event := &models.EventRequest{
		UserID:      "student-1",
		CommitteeID: 2,
		EventName:   "Tech Symposium",
		Venue:       "Library",
		DateFrom:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DateTo:      time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), event))
	require.Equal(t, int64(7), event.ID)
	require.Equal(t, models.EventStatusPending, event.Status)
	require.Equal(t, models.DecisionPending, event.MentorStatus)
	require.Equal(t, models.DecisionPending, event.HandlerStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryGetDetailScoped(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	committee := int64(2)
	mock.ExpectQuery(`SELECT e\.id, e\.user_id.+WHERE e\.id = \$1 AND e\.committee_id = \$2`).
		WithArgs(int64(7), committee).
		WillReturnRows(eventDetailRow())

	detail, err := repo.GetDetail(context.Background(), 7, &committee)
	require.NoError(t, err)
	require.Equal(t, int64(7), detail.ID)
	require.Equal(t, "Robotics Club", detail.CommitteeName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryGetDetailWrongCommittee(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	committee := int64(9)
	mock.ExpectQuery(`SELECT e\.id, e\.user_id.+WHERE e\.id = \$1 AND e\.committee_id = \$2`).
		WithArgs(int64(7), committee).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetDetail(context.Background(), 7, &committee)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEventRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectQuery(`SELECT e\.id, e\.user_id.+WHERE e\.user_id = \$1 AND e\.status IN \(\$2\)`).
		WithArgs("student-1", models.EventStatusPending).
		WillReturnRows(eventDetailRow())

	events, err := repo.List(context.Background(), models.EventFilter{
		UserID: "student-1",
		Status: []models.EventStatus{models.EventStatusPending},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListWithoutLimitReturnsEverything(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectQuery(`SELECT e\.id, e\.user_id.+ORDER BY e\.date_filled DESC, e\.id DESC$`).
		WillReturnRows(eventDetailRow())

	events, err := repo.List(context.Background(), models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListAppliesRequestedPage(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectQuery(`SELECT e\.id, e\.user_id.+ORDER BY e\.date_filled DESC, e\.id DESC LIMIT 25 OFFSET 75$`).
		WillReturnRows(eventDetailRow())

	events, err := repo.List(context.Background(), models.EventFilter{Limit: 25, Offset: 75})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryMentorDecisionCarriesCommitteePredicate(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	comment := "approved for march"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET mentor_status = $1, mentor_comment = $2 WHERE id = $3 AND committee_id = $4")).
		WithArgs(models.DecisionApproved, &comment, int64(7), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateMentorDecision(context.Background(), 7, 2, models.DecisionApproved, &comment))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryMentorDecisionZeroRows(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET mentor_status")).
		WithArgs(models.DecisionRejected, nil, int64(7), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateMentorDecision(context.Background(), 7, 9, models.DecisionRejected, nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEventRepositoryHandlerDecision(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET handler_status = $1, handler_comment = $2 WHERE id = $3")).
		WithArgs(models.DecisionApproved, nil, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateHandlerDecision(context.Background(), 7, models.DecisionApproved, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryAdminApproveGuardsSubApprovals(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(`UPDATE events SET status = \$1, admin_comment = \$2 WHERE id = \$3 AND mentor_status = 'approved' AND handler_status = 'approved'`).
		WithArgs(models.EventStatusApproved, nil, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateAdminDecision(context.Background(), AdminDecisionParams{
		EventID:             7,
		Status:              models.EventStatusApproved,
		RequireSubApprovals: true,
	}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryAdminRejectGuardsReReject(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(`UPDATE events SET status = \$1, admin_comment = \$2 WHERE id = \$3 AND status <> 'Rejected'`).
		WithArgs(models.EventStatusRejected, nil, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateAdminDecision(context.Background(), AdminDecisionParams{
		EventID:        7,
		Status:         models.EventStatusRejected,
		ForbidReReject: true,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEventRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 7))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE id = $1")).
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.Delete(context.Background(), 404), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryFindConflictsClosedInterval(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	dateFrom := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	dateTo := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "event_name", "date_from", "date_to", "time_slot", "submitted_by"}).
		AddRow(int64(3), "Cultural Night",
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			"evening", "ravi")

	// The closed-interval predicate passes dateTo before dateFrom.
	mock.ExpectQuery(`SELECT e\.id, e\.event_name.+e\.date_from <= \$3.+e\.date_to >= \$4`).
		WithArgs("Library", models.EventStatusApproved, dateTo, dateFrom).
		WillReturnRows(rows)

	conflicts, err := repo.FindConflicts(context.Background(), "Library", dateFrom, dateTo)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	require.Equal(t, "Cultural Night", conflicts[0].EventName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryGetAdminView(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	rows := sqlmock.NewRows([]string{"id", "event_name", "status", "mentor_status", "handler_status", "committee_email"}).
		AddRow(int64(7), "Tech Symposium", "Pending", "approved", "pending", "robotics@college.edu")
	mock.ExpectQuery(`SELECT e\.id, e\.event_name, e\.status, e\.mentor_status, e\.handler_status, c\.email`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	view, err := repo.GetAdminView(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, models.DecisionApproved, view.MentorStatus)
	require.Equal(t, models.DecisionPending, view.HandlerStatus)
	require.Equal(t, "robotics@college.edu", view.CommitteeEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}
