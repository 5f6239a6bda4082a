package models

// Holiday blocks every instructor for a whole date.
type Holiday struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Label string `json:"label,omitempty"`
}

// PTOEntry blocks one instructor for a whole date.
type PTOEntry struct {
	Instructor string `json:"instructor" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
}

// AdHocMeeting blocks the named instructors for a time window on a date.
type AdHocMeeting struct {
	Label       string   `json:"label,omitempty"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	Start       string   `json:"start" validate:"required"`
	DurationHrs float64  `json:"duration_hours" validate:"gt=0"`
	Instructors []string `json:"instructors" validate:"required,min=1"`
}

// ConstraintSet is the set of availability restrictions for a month.
// Recurring Tuesday meetings are derived from the calendar, not listed.
type ConstraintSet struct {
	Holidays []Holiday      `json:"holidays"`
	PTO      []PTOEntry     `json:"pto"`
	Meetings []AdHocMeeting `json:"meetings"`
}
