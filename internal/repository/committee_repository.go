package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campuskit/eventdesk/internal/models"
)

// CommitteeRepository reads committee reference data and aggregates.
type CommitteeRepository struct {
	db *sqlx.DB
}

// NewCommitteeRepository constructs the repository.
func NewCommitteeRepository(db *sqlx.DB) *CommitteeRepository {
	return &CommitteeRepository{db: db}
}

// GetByID returns a committee by identifier.
func (r *CommitteeRepository) GetByID(ctx context.Context, id int64) (*models.Committee, error) {
	const query = `SELECT id, name, description, school, section, email FROM committees WHERE id = $1`
	var committee models.Committee
	if err := r.db.GetContext(ctx, &committee, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get committee: %w", err)
	}
	return &committee, nil
}

// List returns all committees ordered by name.
func (r *CommitteeRepository) List(ctx context.Context) ([]models.Committee, error) {
	const query = `SELECT id, name, description, school, section, email FROM committees ORDER BY name`
	var committees []models.Committee
	if err := r.db.SelectContext(ctx, &committees, query); err != nil {
		return nil, fmt.Errorf("list committees: %w", err)
	}
	return committees, nil
}

// Stats aggregates submission outcomes per committee.
func (r *CommitteeRepository) Stats(ctx context.Context) ([]models.CommitteeStats, error) {
	const query = `SELECT
	    c.id AS committee_id,
	    c.name AS committee_name,
	    COUNT(e.id) AS event_count,
	    COALESCE(SUM(CASE WHEN e.status = 'Approved' THEN 1 ELSE 0 END), 0) AS approved_count,
	    COALESCE(SUM(CASE WHEN e.status = 'Rejected' THEN 1 ELSE 0 END), 0) AS rejected_count,
	    COALESCE(AVG(e.date_to::date - e.date_from::date), 0) AS avg_duration_days
	FROM committees c
	LEFT JOIN events e ON e.committee_id = c.id
	GROUP BY c.id, c.name
	ORDER BY c.name`
	var stats []models.CommitteeStats
	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("committee stats: %w", err)
	}
	return stats, nil
}
