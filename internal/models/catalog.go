package models

import "time"

// QualificationState describes how an instructor relates to a course.
type QualificationState string

const (
	Qualified     QualificationState = "Qualified"
	CrossTraining QualificationState = "Cross Training"
	NotQualified  QualificationState = "Not Qualified"
)

// Course is a catalog entry for a deliverable training course.
type Course struct {
	Name string `json:"name" validate:"required"`
	// DurationHours is the classroom time excluding prep.
	DurationHours float64 `json:"duration_hours" validate:"gt=0"`
	AllDay        bool    `json:"all_day"`
	// RequiredRoom pins the course to a single room when non-empty.
	RequiredRoom string `json:"required_room,omitempty"`
	Priority     bool   `json:"priority"`
	// NoPrep marks hands-on courses that start cold, without a prep block.
	NoPrep bool `json:"no_prep"`
	// WeeklyExempt excludes the course from once-per-week enforcement.
	WeeklyExempt bool `json:"weekly_exempt"`
	// AbutsAllStaff allows the course to end exactly when the all-staff
	// meeting begins. Every course may abut the shorter CoP meeting.
	AbutsAllStaff bool `json:"abuts_all_staff"`
}

// DurationMins returns the classroom time in minutes.
func (c Course) DurationMins() int {
	return int(c.DurationHours * 60)
}

// Duration returns the classroom time as a time.Duration.
func (c Course) Duration() time.Duration {
	return time.Duration(c.DurationMins()) * time.Minute
}

// Shift is a named working window over a fixed set of weekdays.
// EndMins exceeds 24h for overnight shifts so the window stays monotonic.
type Shift struct {
	Key       string         `json:"key" validate:"required"`
	Label     string         `json:"label"`
	StartMins int            `json:"start_mins"`
	EndMins   int            `json:"end_mins"`
	Weekdays  []time.Weekday `json:"weekdays"`
}

// Window returns the shift start and end in minutes from midnight,
// normalising overnight shifts to a monotonic range.
func (s Shift) Window() (int, int) {
	start, end := s.StartMins, s.EndMins
	if end <= start {
		end += 24 * 60
	}
	return start, end
}

// Midpoint returns the middle of the shift window in minutes.
func (s Shift) Midpoint() int {
	start, end := s.Window()
	return (start + end) / 2
}

// Covers reports whether the shift works the given weekday.
func (s Shift) Covers(wd time.Weekday) bool {
	for _, d := range s.Weekdays {
		if d == wd {
			return true
		}
	}
	return false
}

// DayRank orders weekdays the way the shift walks them when spreading
// sessions across the month: all first-weekday dates before any
// second-weekday date, and so on.
func (s Shift) DayRank(wd time.Weekday) int {
	for i, d := range s.Weekdays {
		if d == wd {
			return i
		}
	}
	return len(s.Weekdays) + 1
}

// Room is a bookable training space.
type Room struct {
	Name string `json:"name" validate:"required"`
	// Reserved rooms are excluded from the general pool and only host
	// courses that name them via RequiredRoom.
	Reserved bool `json:"reserved"`
}

// Instructor is a member of the training staff.
type Instructor struct {
	Name  string `json:"name" validate:"required"`
	Shift string `json:"shift" validate:"required"`
	// CrossTrainingOnly instructors never lead; they only shadow.
	CrossTrainingOnly bool `json:"cross_training_only"`
}

// QualificationMatrix maps instructor name to course name to state.
// Missing entries read as NotQualified.
type QualificationMatrix map[string]map[string]QualificationState

// State returns the qualification of an instructor for a course.
func (q QualificationMatrix) State(instructor, course string) QualificationState {
	if states, ok := q[instructor]; ok {
		if st, ok := states[course]; ok {
			return st
		}
	}
	return NotQualified
}

// IsQualified reports whether the instructor can lead the course.
func (q QualificationMatrix) IsQualified(instructor, course string) bool {
	return q.State(instructor, course) == Qualified
}

// IsCrossTraining reports whether the instructor shadows the course.
func (q QualificationMatrix) IsCrossTraining(instructor, course string) bool {
	return q.State(instructor, course) == CrossTraining
}

// Catalog bundles the static scheduling inputs.
type Catalog struct {
	Courses     []Course     `json:"courses"`
	Shifts      []Shift      `json:"shifts"`
	Rooms       []Room       `json:"rooms"`
	Instructors []Instructor `json:"instructors"`
}

// Course returns the catalog entry by name.
func (c *Catalog) Course(name string) (Course, bool) {
	for _, course := range c.Courses {
		if course.Name == name {
			return course, true
		}
	}
	return Course{}, false
}

// Shift returns the shift by key.
func (c *Catalog) Shift(key string) (Shift, bool) {
	for _, sh := range c.Shifts {
		if sh.Key == key {
			return sh, true
		}
	}
	return Shift{}, false
}

// Instructor returns the instructor by name.
func (c *Catalog) Instructor(name string) (Instructor, bool) {
	for _, inst := range c.Instructors {
		if inst.Name == name {
			return inst, true
		}
	}
	return Instructor{}, false
}

// CourseNames returns every course name in catalog order.
func (c *Catalog) CourseNames() []string {
	names := make([]string, 0, len(c.Courses))
	for _, course := range c.Courses {
		names = append(names, course.Name)
	}
	return names
}

// GeneralRooms returns the names of rooms open to unrestricted courses.
func (c *Catalog) GeneralRooms() []string {
	rooms := make([]string, 0, len(c.Rooms))
	for _, r := range c.Rooms {
		if !r.Reserved {
			rooms = append(rooms, r.Name)
		}
	}
	return rooms
}

// ShiftInstructors returns the lead instructors assigned to a shift.
func (c *Catalog) ShiftInstructors(shiftKey string) []Instructor {
	var out []Instructor
	for _, inst := range c.Instructors {
		if inst.Shift == shiftKey && !inst.CrossTrainingOnly {
			out = append(out, inst)
		}
	}
	return out
}

// DefaultRequirements derives the monthly occurrence targets from the
// catalog's priority flags.
func (c *Catalog) DefaultRequirements() map[string]int {
	reqs := make(map[string]int, len(c.Courses))
	for _, course := range c.Courses {
		if course.Priority {
			reqs[course.Name] = PriorityRequirement
		} else {
			reqs[course.Name] = StandardRequirement
		}
	}
	return reqs
}
