package dto

import "github.com/campuskit/eventdesk/internal/models"

// DateLayout is the wire format for calendar dates. Conflict detection works
// at day granularity; time-of-day lives only in the free-text TimeSlot.
const DateLayout = "2006-01-02"

// CreateEventRequest is the student submission payload.
type CreateEventRequest struct {
	EventName            string `json:"event_name" binding:"required"`
	Venue                string `json:"venue" binding:"required"`
	DateFrom             string `json:"date_from" binding:"required"`
	DateTo               string `json:"date_to" binding:"required"`
	TimeSlot             string `json:"time_slot"`
	Duration             string `json:"duration"`
	ExtraRequirements    string `json:"extra_requirements"`
	CateringRequirements string `json:"catering_requirements"`
}

// Verdict is the approve/reject action a mentor or handler submits.
type Verdict string

const (
	VerdictApprove Verdict = "approve"
	VerdictReject  Verdict = "reject"
)

// DecisionRequest carries a mentor or handler verdict with an optional
// comment. An omitted comment clears any previous one.
type DecisionRequest struct {
	Action  Verdict `json:"action" binding:"required"`
	Comment string  `json:"comment"`
}

// AdminDecisionRequest carries the administrator's target status.
type AdminDecisionRequest struct {
	Status  models.EventStatus `json:"status" binding:"required"`
	Comment string             `json:"comment"`
}

// VenueCheckRequest asks whether a venue is free over a date range.
type VenueCheckRequest struct {
	Venue    string `json:"venue" binding:"required"`
	DateFrom string `json:"date_from" binding:"required"`
	DateTo   string `json:"date_to" binding:"required"`
}

// VenueCheckResponse reports availability and the full conflict set.
type VenueCheckResponse struct {
	Available bool                   `json:"available"`
	Conflicts []models.VenueConflict `json:"conflicts"`
}
