package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newCommitteeRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCommitteeRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newCommitteeRepoMock(t)
	defer cleanup()

	repo := NewCommitteeRepository(db)
	rows := sqlmock.NewRows([]string{"id", "name", "description", "school", "section", "email"}).
		AddRow(int64(2), "Robotics Club", "builds robots", "Engineering", "A", "robotics@college.edu")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, school, section, email FROM committees WHERE id = $1")).
		WithArgs(int64(2)).
		WillReturnRows(rows)

	committee, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, "Robotics Club", committee.Name)
	require.Equal(t, "robotics@college.edu", committee.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitteeRepositoryGetByIDMissing(t *testing.T) {
	db, mock, cleanup := newCommitteeRepoMock(t)
	defer cleanup()

	repo := NewCommitteeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, school, section, email FROM committees WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCommitteeRepositoryStats(t *testing.T) {
	db, mock, cleanup := newCommitteeRepoMock(t)
	defer cleanup()

	repo := NewCommitteeRepository(db)
	rows := sqlmock.NewRows([]string{"committee_id", "committee_name", "event_count", "approved_count", "rejected_count", "avg_duration_days"}).
		AddRow(int64(2), "Robotics Club", int64(5), int64(3), int64(1), 2.4).
		AddRow(int64(3), "Drama Society", int64(0), int64(0), int64(0), 0.0)
	mock.ExpectQuery(`SELECT\s+c\.id AS committee_id`).
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	require.Equal(t, 5, stats[0].EventCount)
	require.Equal(t, 3, stats[0].ApprovedCount)
	require.InDelta(t, 2.4, stats[0].AvgDurationDays, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}
