package models

// Committee groups students and their mentor and carries the address that
// receives decision notifications. Committees are reference data here; the
// API never mutates them.
type Committee struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	School      string `db:"school" json:"school"`
	Section     string `db:"section" json:"section"`
	Email       string `db:"email" json:"email"`
}

// CommitteeStats aggregates per-committee submission outcomes for the admin
// dashboard.
type CommitteeStats struct {
	CommitteeID     int64   `db:"committee_id" json:"committee_id"`
	CommitteeName   string  `db:"committee_name" json:"committee_name"`
	EventCount      int     `db:"event_count" json:"event_count"`
	ApprovedCount   int     `db:"approved_count" json:"approved_count"`
	RejectedCount   int     `db:"rejected_count" json:"rejected_count"`
	AvgDurationDays float64 `db:"avg_duration_days" json:"avg_duration_days"`
}
