package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfg-academy/training-scheduler-api/internal/models"
)

func newMonthlyScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMonthlyScheduleRepositoryCreateVersioned(t *testing.T) {
	db, mock, cleanup := newMonthlyScheduleRepoMock(t)
	defer cleanup()
	repo := NewMonthlyScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM monthly_schedules WHERE year = $1 AND month = $2")).
		WithArgs(2026, 3).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(2))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO monthly_schedules")).
		WithArgs(sqlmock.AnyArg(), 2026, 3, 2, string(models.MonthlyScheduleStatusDraft), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload := &models.MonthlySchedule{
		Year:  2026,
		Month: 3,
		Meta:  types.JSONText(`{"flags":[]}`),
	}
	err := repo.CreateVersioned(context.Background(), nil, payload)
	require.NoError(t, err)
	assert.Equal(t, 2, payload.Version)
	assert.NotEmpty(t, payload.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyScheduleRepositoryCreateVersionedRejectsBadMonth(t *testing.T) {
	db, _, cleanup := newMonthlyScheduleRepoMock(t)
	defer cleanup()
	repo := NewMonthlyScheduleRepository(db)

	err := repo.CreateVersioned(context.Background(), nil, &models.MonthlySchedule{Year: 2026, Month: 13})
	assert.Error(t, err)
}

func TestMonthlyScheduleRepositoryList(t *testing.T) {
	db, mock, cleanup := newMonthlyScheduleRepoMock(t)
	defer cleanup()
	repo := NewMonthlyScheduleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "year", "month", "version", "status", "created_at", "session_count"}).
		AddRow("sch-2", 2026, 3, 2, string(models.MonthlyScheduleStatusPublished), time.Now(), 42).
		AddRow("sch-1", 2026, 3, 1, string(models.MonthlyScheduleStatusDraft), time.Now(), 40)
	mock.ExpectQuery("SELECT s.id, s.year, s.month, s.version, s.status, s.created_at").
		WithArgs(2026, 3).
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), 2026, 3)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sch-2", list[0].ID)
	assert.Equal(t, 42, list[0].SessionCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyScheduleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMonthlyScheduleRepoMock(t)
	defer cleanup()
	repo := NewMonthlyScheduleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "year", "month", "version", "status", "meta", "created_at", "updated_at"}).
		AddRow("sch-1", 2026, 3, 1, string(models.MonthlyScheduleStatusDraft), types.JSONText(`{}`), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, year, month, version, status, meta, created_at, updated_at FROM monthly_schedules WHERE id = $1")).
		WithArgs("sch-1").
		WillReturnRows(rows)

	schedule, err := repo.FindByID(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.Equal(t, 2026, schedule.Year)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyScheduleRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMonthlyScheduleRepoMock(t)
	defer cleanup()
	repo := NewMonthlyScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, year, month, version, status, meta, created_at, updated_at FROM monthly_schedules WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyScheduleRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMonthlyScheduleRepoMock(t)
	defer cleanup()
	repo := NewMonthlyScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE monthly_schedules SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(models.MonthlyScheduleStatusPublished, sqlmock.AnyArg(), "sch-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.UpdateStatus(context.Background(), nil, "sch-1", models.MonthlyScheduleStatusPublished)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyScheduleRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newMonthlyScheduleRepoMock(t)
	defer cleanup()
	repo := NewMonthlyScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM monthly_schedules WHERE id = $1")).
		WithArgs("sch-1").
		WillReturnResult(sqlmock.NewResult(1, 0))

	err := repo.Delete(context.Background(), "sch-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
