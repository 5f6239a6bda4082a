package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// MonthlyScheduleStatus represents lifecycle phases for saved schedules.
type MonthlyScheduleStatus string

const (
	MonthlyScheduleStatusDraft     MonthlyScheduleStatus = "DRAFT"
	MonthlyScheduleStatusPublished MonthlyScheduleStatus = "PUBLISHED"
	MonthlyScheduleStatusArchived  MonthlyScheduleStatus = "ARCHIVED"
)

// MonthlySchedule is a versioned saved timetable for a year-month pair.
// Meta carries the generation flags and meal placements as JSON.
type MonthlySchedule struct {
	ID        string                `db:"id" json:"id"`
	Year      int                   `db:"year" json:"year"`
	Month     int                   `db:"month" json:"month"`
	Version   int                   `db:"version" json:"version"`
	Status    MonthlyScheduleStatus `db:"status" json:"status"`
	Meta      types.JSONText        `db:"meta" json:"meta"`
	CreatedAt time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt time.Time             `db:"updated_at" json:"updated_at"`
}

// MonthlyScheduleSession is a persisted session row belonging to a saved
// schedule version.
type MonthlyScheduleSession struct {
	ID            string    `db:"id" json:"id"`
	ScheduleID    string    `db:"schedule_id" json:"schedule_id"`
	Date          string    `db:"session_date" json:"date"`
	Shift         string    `db:"shift" json:"shift"`
	Course        string    `db:"course" json:"course"`
	Instructor    string    `db:"instructor" json:"instructor"`
	Room          string    `db:"room" json:"room"`
	PrepStartMin  int       `db:"prep_start_min" json:"prep_start_min"`
	ClassStartMin int       `db:"class_start_min" json:"class_start_min"`
	ClassEndMin   int       `db:"class_end_min" json:"class_end_min"`
	DurationHours float64   `db:"duration_hours" json:"duration_hours"`
	AllDay        bool      `db:"all_day" json:"all_day"`
	ShadowOf      *string   `db:"shadow_of" json:"shadow_of,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// MonthlyScheduleMeta is lightweight metadata for list views.
type MonthlyScheduleMeta struct {
	ID           string                `json:"id"`
	Year         int                   `json:"year"`
	Month        int                   `json:"month"`
	Version      int                   `json:"version"`
	Status       MonthlyScheduleStatus `json:"status"`
	SessionCount int                   `json:"session_count"`
	CreatedAt    time.Time             `json:"created_at"`
}
