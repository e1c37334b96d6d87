package models

import "time"

// DecisionStatus tracks a subordinate (mentor or handler) verdict.
type DecisionStatus string

const (
	DecisionPending  DecisionStatus = "pending"
	DecisionApproved DecisionStatus = "approved"
	DecisionRejected DecisionStatus = "rejected"
)

// EventStatus is the administrator's named decision on an event request.
type EventStatus string

const (
	EventStatusPending  EventStatus = "Pending"
	EventStatusApproved EventStatus = "Approved"
	EventStatusRejected EventStatus = "Rejected"
)

// ValidEventStatus reports whether the status name is one the admin may set.
func ValidEventStatus(s EventStatus) bool {
	switch s {
	case EventStatusPending, EventStatusApproved, EventStatusRejected:
		return true
	}
	return false
}

// EventRequest is an event/venue booking submission moving through the
// two-tier approval chain. Submitter and committee are immutable after
// creation; the three decision columns are each owned by one role.
type EventRequest struct {
	ID          int64     `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	CommitteeID int64     `db:"committee_id" json:"committee_id"`
	EventName   string    `db:"event_name" json:"event_name"`
	DateFilled  time.Time `db:"date_filled" json:"date_filled"`
	Venue       string    `db:"venue" json:"venue"`
	DateFrom    time.Time `db:"date_from" json:"date_from"`
	DateTo      time.Time `db:"date_to" json:"date_to"`
	TimeSlot    string    `db:"time_slot" json:"time_slot"`
	Duration    string    `db:"duration" json:"duration"`

	ExtraRequirements    string `db:"extra_requirements" json:"extra_requirements"`
	CateringRequirements string `db:"catering_requirements" json:"catering_requirements"`

	Status       EventStatus `db:"status" json:"status"`
	AdminComment *string     `db:"admin_comment" json:"admin_comment,omitempty"`

	MentorStatus  DecisionStatus `db:"mentor_status" json:"mentor_status"`
	MentorComment *string        `db:"mentor_comment" json:"mentor_comment,omitempty"`

	HandlerStatus  DecisionStatus `db:"handler_status" json:"handler_status"`
	HandlerComment *string        `db:"handler_comment" json:"handler_comment,omitempty"`
}

// EventDetail joins submitter and committee names onto an event row for
// display purposes.
type EventDetail struct {
	EventRequest
	SubmittedBy   string `db:"submitted_by" json:"submitted_by"`
	CommitteeName string `db:"committee_name" json:"committee_name"`
}

// EventFilter constrains event listing queries by role scope.
type EventFilter struct {
	UserID      string
	CommitteeID *int64
	Status      []EventStatus
	Limit       int
	Offset      int
}

// VenueConflict identifies an approved booking overlapping a requested range,
// with enough detail to render a human-readable explanation.
type VenueConflict struct {
	EventID     int64     `db:"id" json:"event_id"`
	EventName   string    `db:"event_name" json:"event_name"`
	DateFrom    time.Time `db:"date_from" json:"date_from"`
	DateTo      time.Time `db:"date_to" json:"date_to"`
	TimeSlot    string    `db:"time_slot" json:"time_slot"`
	SubmittedBy string    `db:"submitted_by" json:"submitted_by"`
}
