package dto

import "github.com/campuskit/eventdesk/internal/models"

// DemandingEvent is an event whose combined requirements text exceeds the
// average across all submissions.
type DemandingEvent struct {
	models.EventDetail
	RequirementsLength int `db:"requirements_length" json:"requirements_length"`
}
