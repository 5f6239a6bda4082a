package models

import "fmt"

// Session is a single placed training block. All minute fields count from
// midnight of Date; for overnight shifts ClassEnd may exceed 24*60.
type Session struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	Shift      string `json:"shift"`
	Course     string `json:"course"`
	Instructor string `json:"instructor"`
	Room       string `json:"room"`

	PrepStartMin  int `json:"prep_start_min"`
	ClassStartMin int `json:"class_start_min"`
	ClassEndMin   int `json:"class_end_min"`

	DurationHours float64 `json:"duration_hours"`
	AllDay        bool    `json:"all_day"`

	// ShadowOf names the lead instructor when this is an observation
	// session. Shadows never occupy the room ledger.
	ShadowOf string `json:"shadow_of,omitempty"`
}

// IsShadow reports whether the session is a cross-training observation.
func (s Session) IsShadow() bool {
	return s.ShadowOf != ""
}

// PrepStart formats the prep start as HH:MM wall time.
func (s Session) PrepStart() string { return ClockTime(s.PrepStartMin) }

// ClassStart formats the class start as HH:MM wall time.
func (s Session) ClassStart() string { return ClockTime(s.ClassStartMin) }

// ClassEnd formats the class end as HH:MM wall time.
func (s Session) ClassEnd() string { return ClockTime(s.ClassEndMin) }

// ClockTime renders minutes-from-midnight as HH:MM, wrapping past 24h.
func ClockTime(mins int) string {
	mins %= 24 * 60
	if mins < 0 {
		mins += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// ConflictKind labels why two sessions collide.
type ConflictKind string

const (
	ConflictInstructor ConflictKind = "instructor"
	ConflictRoom       ConflictKind = "room"
)

// Conflict pairs two overlapping sessions by ID.
type Conflict struct {
	Kind     ConflictKind `json:"kind"`
	SessionA string       `json:"session_a"`
	SessionB string       `json:"session_b"`
}

// MealBreak records where the generator placed an instructor's meal on a
// given date.
type MealBreak struct {
	Instructor string `json:"instructor"`
	Date       string `json:"date"`
	StartMin   int    `json:"start_min"`
}

// GenerationResult is the full output of one generator run.
type GenerationResult struct {
	Year       int         `json:"year"`
	Month      int         `json:"month"`
	Sessions   []Session   `json:"sessions"`
	Flags      []string    `json:"flags"`
	MealBreaks []MealBreak `json:"meal_breaks"`
}

// MealBreakFor finds the meal start for an instructor-date pair.
func (r *GenerationResult) MealBreakFor(instructor, date string) (int, bool) {
	for _, mb := range r.MealBreaks {
		if mb.Instructor == instructor && mb.Date == date {
			return mb.StartMin, true
		}
	}
	return 0, false
}
