package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/mfg-academy/training-scheduler-api/internal/models"
)

// MonthlyScheduleRepository persists versioned monthly timetables.
type MonthlyScheduleRepository struct {
	db *sqlx.DB
}

// NewMonthlyScheduleRepository constructs the repository.
func NewMonthlyScheduleRepository(db *sqlx.DB) *MonthlyScheduleRepository {
	return &MonthlyScheduleRepository{db: db}
}

func (r *MonthlyScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a schedule assigning the next version for the
// year-month pair.
func (r *MonthlyScheduleRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.MonthlySchedule) error {
	if schedule == nil {
		return fmt.Errorf("schedule payload is nil")
	}
	if schedule.Year == 0 || schedule.Month < 1 || schedule.Month > 12 {
		return fmt.Errorf("year and month are required")
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = models.MonthlyScheduleStatusDraft
	}
	if len(schedule.Meta) == 0 {
		schedule.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM monthly_schedules WHERE year = $1 AND month = $2`
	if err := sqlx.GetContext(ctx, target, &schedule.Version, nextVersionQuery, schedule.Year, schedule.Month); err != nil {
		return fmt.Errorf("compute next monthly schedule version: %w", err)
	}

	const insertQuery = `
INSERT INTO monthly_schedules (id, year, month, version, status, meta, created_at, updated_at)
VALUES (:id, :year, :month, :version, :status, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, schedule); err != nil {
		return fmt.Errorf("insert monthly schedule: %w", err)
	}
	return nil
}

// List returns saved versions, newest first. Zero year or month skips
// that filter.
func (r *MonthlyScheduleRepository) List(ctx context.Context, year, month int) ([]models.MonthlyScheduleMeta, error) {
	const query = `
SELECT s.id, s.year, s.month, s.version, s.status, s.created_at,
       COUNT(ss.id) AS session_count
FROM monthly_schedules s
LEFT JOIN monthly_schedule_sessions ss ON ss.schedule_id = s.id
WHERE ($1 = 0 OR s.year = $1) AND ($2 = 0 OR s.month = $2)
GROUP BY s.id, s.year, s.month, s.version, s.status, s.created_at
ORDER BY s.year DESC, s.month DESC, s.version DESC`
	rows, err := r.db.QueryxContext(ctx, query, year, month)
	if err != nil {
		return nil, fmt.Errorf("list monthly schedules: %w", err)
	}
	defer rows.Close()

	var list []models.MonthlyScheduleMeta
	for rows.Next() {
		var meta models.MonthlyScheduleMeta
		if err := rows.Scan(&meta.ID, &meta.Year, &meta.Month, &meta.Version, &meta.Status, &meta.CreatedAt, &meta.SessionCount); err != nil {
			return nil, fmt.Errorf("scan monthly schedule: %w", err)
		}
		list = append(list, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly schedules: %w", err)
	}
	return list, nil
}

// FindByID loads a schedule by its identifier.
func (r *MonthlyScheduleRepository) FindByID(ctx context.Context, id string) (*models.MonthlySchedule, error) {
	const query = `SELECT id, year, month, version, status, meta, created_at, updated_at FROM monthly_schedules WHERE id = $1`
	var schedule models.MonthlySchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// UpdateStatus updates the lifecycle status of a schedule.
func (r *MonthlyScheduleRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.MonthlyScheduleStatus) error {
	target := r.exec(exec)
	const query = `UPDATE monthly_schedules SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := target.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update monthly schedule status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("monthly schedule status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a stored schedule version and, via cascade, its
// sessions.
func (r *MonthlyScheduleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM monthly_schedules WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete monthly schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("monthly schedule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
