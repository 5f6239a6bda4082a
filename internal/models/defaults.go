package models

import "time"

const (
	// PriorityRequirement is the default monthly occurrence target for
	// priority courses; StandardRequirement for everything else.
	PriorityRequirement = 5
	StandardRequirement = 1

	// MealBreakMins is the length of the mid-shift meal break.
	MealBreakMins = 30
	// PrepMins is the setup block placed before most classes.
	PrepMins = 30

	// Slot bands, in hours. The first class of a day prefers long
	// courses, the second class short ones.
	Slot1MinHours = 3.0
	Slot1MaxHours = 4.0
	Slot2MinHours = 1.5
	Slot2MaxHours = 2.5
)

// AvionicsLab is the reserved lab that only hosts soldering
// certification courses.
const AvionicsLab = "Avionics Training Lab"

// DefaultCatalog returns the manufacturing academy's standing catalog:
// courses, shifts, rooms, and instructors as staffed today.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Courses: []Course{
			{Name: "Mech / Elec Torque", DurationHours: 4.0, WeeklyExempt: true},
			{Name: "Safety Wire / Cable Installation", DurationHours: 3.0},
			{Name: "Smart Torque", DurationHours: 2.0, Priority: true},
			{Name: "Threaded Insert Installation", DurationHours: 3.5},
			{Name: "Fluid Fittings Installation", DurationHours: 2.5, NoPrep: true},
			{Name: "Wire Harness Mate / Demate", DurationHours: 3.0, NoPrep: true},
			{Name: "Wire Harness Routing and Installation", DurationHours: 4.0, NoPrep: true},
			{Name: "Conversion Coating", DurationHours: 1.5},
			{Name: "Application of Sealants", DurationHours: 3.0},
			{Name: "Component Adhesive Bonding", DurationHours: 2.0},
			{Name: "Bonding Structural", DurationHours: 4.0},
			{Name: "MPS Liquid Shim", DurationHours: 2.0},
			{Name: "Confined Space", DurationHours: 3.0, Priority: true, NoPrep: true, AbutsAllStaff: true},
			{Name: "Strain Gauge Installation", DurationHours: 4.0},
			{Name: "Lock Out / Tag Out", DurationHours: 2.0, Priority: true, NoPrep: true, AbutsAllStaff: true},
			{Name: "Rynglok - Axial Swage", DurationHours: 2.0, NoPrep: true},
			{Name: "IPC 620", DurationHours: 6.0, AllDay: true, RequiredRoom: AvionicsLab, WeeklyExempt: true},
			{Name: "J-STD", DurationHours: 6.0, AllDay: true, RequiredRoom: AvionicsLab, WeeklyExempt: true},
		},
		Shifts: []Shift{
			{
				Key: "A1", Label: "A1-Shift",
				StartMins: 6*60 + 30, EndMins: 16 * 60,
				Weekdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday},
			},
			{
				Key: "A2", Label: "A2-Shift",
				StartMins: 6*60 + 30, EndMins: 16 * 60,
				Weekdays: []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
			},
			{
				Key: "B", Label: "B-Shift",
				StartMins: 16*60 + 30, EndMins: 2 * 60,
				Weekdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday},
			},
		},
		Rooms: []Room{
			{Name: AvionicsLab, Reserved: true},
			{Name: "Galileo"},
			{Name: "Newton"},
			{Name: "Classroom C"},
		},
		Instructors: []Instructor{
			{Name: "Katie", Shift: "A1"},
			{Name: "David", Shift: "A1"},
			{Name: "Eric", Shift: "A1"},
			{Name: "Chris", Shift: "A2"},
			{Name: "Erin", Shift: "A2"},
			{Name: "Dave", Shift: "B"},
			{Name: "Taji", Shift: "A1", CrossTrainingOnly: true},
		},
	}
}

// DefaultQualifications fills the matrix: lead instructors are Qualified
// on every course, cross-training instructors are CrossTraining on every
// course.
func DefaultQualifications(catalog *Catalog) QualificationMatrix {
	matrix := make(QualificationMatrix, len(catalog.Instructors))
	for _, inst := range catalog.Instructors {
		state := Qualified
		if inst.CrossTrainingOnly {
			state = CrossTraining
		}
		states := make(map[string]QualificationState, len(catalog.Courses))
		for _, course := range catalog.Courses {
			states[course.Name] = state
		}
		matrix[inst.Name] = states
	}
	return matrix
}
