package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mfg-academy/training-scheduler-api/internal/models"
)

// MonthlyScheduleSessionRepository persists session rows of a saved
// schedule version.
type MonthlyScheduleSessionRepository struct {
	db *sqlx.DB
}

// NewMonthlyScheduleSessionRepository constructs the repository.
func NewMonthlyScheduleSessionRepository(db *sqlx.DB) *MonthlyScheduleSessionRepository {
	return &MonthlyScheduleSessionRepository{db: db}
}

func (r *MonthlyScheduleSessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch writes all session rows for a schedule version.
func (r *MonthlyScheduleSessionRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, rows []models.MonthlyScheduleSession) error {
	if len(rows) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO monthly_schedule_sessions
	(id, schedule_id, session_date, shift, course, instructor, room,
	 prep_start_min, class_start_min, class_end_min, duration_hours, all_day, shadow_of, created_at)
VALUES
	(:id, :schedule_id, :session_date, :shift, :course, :instructor, :room,
	 :prep_start_min, :class_start_min, :class_end_min, :duration_hours, :all_day, :shadow_of, :created_at)`
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		if rows[i].ScheduleID == "" {
			return fmt.Errorf("session row %d missing schedule id", i)
		}
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, rows[i]); err != nil {
			return fmt.Errorf("insert schedule session: %w", err)
		}
	}
	return nil
}

// ListBySchedule returns session rows for a schedule version in
// date-then-start order.
func (r *MonthlyScheduleSessionRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.MonthlyScheduleSession, error) {
	const query = `
SELECT id, schedule_id, session_date, shift, course, instructor, room,
       prep_start_min, class_start_min, class_end_min, duration_hours, all_day, shadow_of, created_at
FROM monthly_schedule_sessions
WHERE schedule_id = $1
ORDER BY session_date, class_start_min, instructor`
	var rows []models.MonthlyScheduleSession
	if err := r.db.SelectContext(ctx, &rows, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule sessions: %w", err)
	}
	return rows, nil
}
