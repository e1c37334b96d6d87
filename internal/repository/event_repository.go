package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campuskit/eventdesk/internal/dto"
	"github.com/campuskit/eventdesk/internal/models"
)

const eventDetailColumns = `e.id, e.user_id, e.committee_id, e.event_name, e.date_filled, e.venue,
       e.date_from, e.date_to, e.time_slot, e.duration, e.extra_requirements, e.catering_requirements,
       e.status, e.admin_comment, e.mentor_status, e.mentor_comment, e.handler_status, e.handler_comment,
       u.username AS submitted_by, c.name AS committee_name`

const eventDetailJoins = ` FROM events e
       JOIN users u ON u.id = e.user_id
       JOIN committees c ON c.id = e.committee_id`

// EventRepository persists event requests and their decision state. Every
// decision write is a single conditional UPDATE whose predicate carries both
// the row identity and the caller's authorization scope, so a losing
// concurrent caller observes zero rows affected instead of a partial write.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event request with all decision fields pending.
func (r *EventRepository) Create(ctx context.Context, event *models.EventRequest) error {
	if event.Status == "" {
		event.Status = models.EventStatusPending
	}
	if event.MentorStatus == "" {
		event.MentorStatus = models.DecisionPending
	}
	if event.HandlerStatus == "" {
		event.HandlerStatus = models.DecisionPending
	}
	if event.DateFilled.IsZero() {
		event.DateFilled = time.Now().UTC()
	}
	const query = `INSERT INTO events
	(user_id, committee_id, event_name, date_filled, venue, date_from, date_to, time_slot, duration,
	 extra_requirements, catering_requirements, status, mentor_status, handler_status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		event.UserID, event.CommitteeID, event.EventName, event.DateFilled, event.Venue,
		event.DateFrom, event.DateTo, event.TimeSlot, event.Duration,
		event.ExtraRequirements, event.CateringRequirements,
		event.Status, event.MentorStatus, event.HandlerStatus,
	).Scan(&event.ID); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// GetDetail fetches a single event joined with submitter and committee names.
// A non-nil committeeID restricts the lookup to that committee, so a mentor
// probing another committee's event sees the same "no rows" as a missing id.
func (r *EventRepository) GetDetail(ctx context.Context, id int64, committeeID *int64) (*models.EventDetail, error) {
	query := `SELECT ` + eventDetailColumns + eventDetailJoins + ` WHERE e.id = $1`
	args := []interface{}{id}
	if committeeID != nil {
		query += ` AND e.committee_id = $2`
		args = append(args, *committeeID)
	}
	var detail models.EventDetail
	if err := r.db.GetContext(ctx, &detail, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get event detail: %w", err)
	}
	return &detail, nil
}

// List returns events matching the filter, newest submissions first. A
// positive Limit paginates the result; otherwise every match is returned.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + eventDetailColumns + eventDetailJoins)

	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 3)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("e.user_id = $%d", len(args)))
	}
	if filter.CommitteeID != nil {
		args = append(args, *filter.CommitteeID)
		conditions = append(conditions, fmt.Sprintf("e.committee_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("e.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY e.date_filled DESC, e.id DESC")

	// A zero limit returns the full result set; the export path relies on
	// that to render every matching event.
	if filter.Limit > 0 {
		limit := filter.Limit
		if limit > 200 {
			limit = 200
		}
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))
	}

	var events []models.EventDetail
	if err := r.db.SelectContext(ctx, &events, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// UpdateMentorDecision overwrites the mentor verdict for an event owned by
// the given committee. Zero rows affected means either the event does not
// exist or it belongs to another committee; callers report both as not found.
func (r *EventRepository) UpdateMentorDecision(ctx context.Context, eventID, committeeID int64, status models.DecisionStatus, comment *string) error {
	const query = `UPDATE events SET mentor_status = $1, mentor_comment = $2 WHERE id = $3 AND committee_id = $4`
	return r.execDecision(ctx, query, status, comment, eventID, committeeID)
}

// UpdateHandlerDecision overwrites the handler verdict. The handler role is
// global, so the predicate carries only the event id.
func (r *EventRepository) UpdateHandlerDecision(ctx context.Context, eventID int64, status models.DecisionStatus, comment *string) error {
	const query = `UPDATE events SET handler_status = $1, handler_comment = $2 WHERE id = $3`
	return r.execDecision(ctx, query, status, comment, eventID)
}

// AdminDecisionParams groups the admin status write and its guards.
type AdminDecisionParams struct {
	EventID int64
	Status  models.EventStatus
	Comment *string
	// RequireSubApprovals adds both subordinate approvals to the UPDATE
	// predicate so a concurrent subordinate flip loses atomically.
	RequireSubApprovals bool
	// ForbidReReject excludes rows already in the Rejected status.
	ForbidReReject bool
}

// UpdateAdminDecision applies the administrator's status in one conditional
// statement. Zero rows affected surfaces as sql.ErrNoRows for the service to
// disambiguate.
func (r *EventRepository) UpdateAdminDecision(ctx context.Context, params AdminDecisionParams) error {
	query := `UPDATE events SET status = $1, admin_comment = $2 WHERE id = $3`
	if params.RequireSubApprovals {
		query += fmt.Sprintf(" AND mentor_status = '%s' AND handler_status = '%s'",
			models.DecisionApproved, models.DecisionApproved)
	}
	if params.ForbidReReject {
		query += fmt.Sprintf(" AND status <> '%s'", models.EventStatusRejected)
	}
	return r.execDecision(ctx, query, params.Status, params.Comment, params.EventID)
}

func (r *EventRepository) execDecision(ctx context.Context, query string, status interface{}, comment *string, args ...interface{}) error {
	execArgs := append([]interface{}{status, comment}, args...)
	result, err := r.db.ExecContext(ctx, query, execArgs...)
	if err != nil {
		return fmt.Errorf("update decision: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check decision rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete hard-deletes an event. There is no soft delete or versioning.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM events WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindConflicts returns every Approved event at the venue whose closed date
// interval overlaps [dateFrom, dateTo]. Boundary-touching dates count as
// overlap. Reads run concurrently with decision writes; the race between a
// check and a competing approval is accepted and not serialized here.
func (r *EventRepository) FindConflicts(ctx context.Context, venue string, dateFrom, dateTo time.Time) ([]models.VenueConflict, error) {
	const query = `SELECT e.id, e.event_name, e.date_from, e.date_to, e.time_slot, u.username AS submitted_by
	FROM events e
	JOIN users u ON u.id = e.user_id
	WHERE e.venue = $1
	  AND e.status = $2
	  AND e.date_from <= $3
	  AND e.date_to >= $4
	ORDER BY e.date_from`
	var conflicts []models.VenueConflict
	if err := r.db.SelectContext(ctx, &conflicts, query, venue, models.EventStatusApproved, dateTo, dateFrom); err != nil {
		return nil, fmt.Errorf("find venue conflicts: %w", err)
	}
	return conflicts, nil
}

// ListDemanding returns events whose combined requirements text length is
// above the average across all events.
func (r *EventRepository) ListDemanding(ctx context.Context) ([]dto.DemandingEvent, error) {
	const query = `SELECT ` + eventDetailColumns + `,
	       (LENGTH(e.extra_requirements) + LENGTH(e.catering_requirements)) AS requirements_length` +
		eventDetailJoins + `
	WHERE (LENGTH(e.extra_requirements) + LENGTH(e.catering_requirements)) >
	      (SELECT AVG(LENGTH(extra_requirements) + LENGTH(catering_requirements)) FROM events)
	ORDER BY requirements_length DESC`
	var events []dto.DemandingEvent
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list demanding events: %w", err)
	}
	return events, nil
}

// AdminView is the snapshot the admin decision path reads before writing:
// current statuses plus the committee's notification address.
type AdminView struct {
	ID             int64                 `db:"id"`
	EventName      string                `db:"event_name"`
	Status         models.EventStatus    `db:"status"`
	MentorStatus   models.DecisionStatus `db:"mentor_status"`
	HandlerStatus  models.DecisionStatus `db:"handler_status"`
	CommitteeEmail string                `db:"committee_email"`
}

// GetAdminView loads the decision snapshot for an event.
func (r *EventRepository) GetAdminView(ctx context.Context, id int64) (*AdminView, error) {
	const query = `SELECT e.id, e.event_name, e.status, e.mentor_status, e.handler_status, c.email AS committee_email
	FROM events e
	JOIN committees c ON c.id = e.committee_id
	WHERE e.id = $1`
	var view AdminView
	if err := r.db.GetContext(ctx, &view, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get admin view: %w", err)
	}
	return &view, nil
}
