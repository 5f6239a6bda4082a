package dto

import (
	"time"

	"github.com/mfg-academy/training-scheduler-api/internal/models"
)

// GenerateScheduleRequest asks for a fresh monthly schedule proposal.
// Catalog overrides fall back to the standing defaults when omitted.
type GenerateScheduleRequest struct {
	Year  int `json:"year" validate:"required,min=2000,max=2100"`
	Month int `json:"month" validate:"required,min=1,max=12"`

	// Requirements overrides the per-course monthly occurrence targets.
	Requirements map[string]int `json:"requirements,omitempty" validate:"omitempty,dive,min=0"`

	Constraints models.ConstraintSet `json:"constraints"`

	// Qualifications overrides entries in the default matrix. Instructors
	// not listed keep their defaults.
	Qualifications map[string]map[string]models.QualificationState `json:"qualifications,omitempty"`

	// RemovedInstructors excludes staff from this month entirely.
	RemovedInstructors []string `json:"removed_instructors,omitempty"`

	// Seed fixes the random source for reproducible output.
	Seed *int64 `json:"seed,omitempty"`
}

// ScheduleProposalStats summarises a proposal for review screens.
type ScheduleProposalStats struct {
	SessionCount int            `json:"session_count"`
	ShadowCount  int            `json:"shadow_count"`
	PerShift     map[string]int `json:"per_shift"`
	FlagCount    int            `json:"flag_count"`
}

// GenerateScheduleResponse returns the proposal and everything needed to
// review it.
type GenerateScheduleResponse struct {
	ProposalID string                `json:"proposal_id"`
	Year       int                   `json:"year"`
	Month      int                   `json:"month"`
	Sessions   []models.Session      `json:"sessions"`
	Flags      []string              `json:"flags"`
	MealBreaks []models.MealBreak    `json:"meal_breaks"`
	Conflicts  []models.Conflict     `json:"conflicts"`
	Stats      ScheduleProposalStats `json:"stats"`
}

// ProposalResponse returns a stored proposal in full.
type ProposalResponse struct {
	ProposalID  string             `json:"proposal_id"`
	Year        int                `json:"year"`
	Month       int                `json:"month"`
	Sessions    []models.Session   `json:"sessions"`
	Flags       []string           `json:"flags"`
	MealBreaks  []models.MealBreak `json:"meal_breaks"`
	Conflicts   []models.Conflict  `json:"conflicts"`
	RequestedAt time.Time          `json:"requested_at"`
}

// UpdateSessionRequest rewrites one session inside a proposal. The class
// end is recomputed from the course duration and the prep block pulled
// back in front of the new start.
type UpdateSessionRequest struct {
	Course        string `json:"course" validate:"required"`
	Instructor    string `json:"instructor" validate:"required"`
	Room          string `json:"room" validate:"required"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	ClassStartMin int    `json:"class_start_min" validate:"min=0"`
}

// AddSessionRequest appends a manual session to a proposal.
type AddSessionRequest struct {
	Shift         string `json:"shift" validate:"required"`
	Course        string `json:"course" validate:"required"`
	Instructor    string `json:"instructor" validate:"required"`
	Room          string `json:"room" validate:"required"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	ClassStartMin int    `json:"class_start_min" validate:"min=0"`
}

// SaveScheduleRequest persists a proposal as a versioned schedule.
type SaveScheduleRequest struct {
	ProposalID string `json:"proposal_id" validate:"required,uuid4"`
	// Publish marks the saved version PUBLISHED instead of DRAFT.
	Publish bool `json:"publish"`
	// Force saves even when the proposal still has conflicts.
	Force bool `json:"force"`
}

// ScheduleListQuery filters saved schedules.
type ScheduleListQuery struct {
	Year  int `form:"year"`
	Month int `form:"month"`
}

// ExportQuery selects the export format and scope.
type ExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
	Shift  string `form:"shift"`
}
