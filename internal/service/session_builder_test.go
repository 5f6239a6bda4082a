package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfg-academy/training-scheduler-api/internal/models"
)

func newTestBuilder(t *testing.T, cs models.ConstraintSet) (*sessionBuilder, *models.Catalog) {
	t.Helper()
	catalog := models.DefaultCatalog()
	cons, err := newConstraintIndex(cs)
	require.NoError(t, err)
	return &sessionBuilder{catalog: catalog, cons: cons, occ: newOccupancy(catalog)}, catalog
}

func mustCourse(t *testing.T, catalog *models.Catalog, name string) models.Course {
	t.Helper()
	course, ok := catalog.Course(name)
	require.True(t, ok, "course %s missing from catalog", name)
	return course
}

func TestBuildDaySingleClass(t *testing.T) {
	b, catalog := newTestBuilder(t, models.ConstraintSet{})
	shift, _ := catalog.Shift("A1")
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	course := mustCourse(t, catalog, "Safety Wire / Cable Installation") // 3.0h with prep
	s1, s2, meal := b.buildDay(shift, monday, "Katie", course, nil)
	require.NotNil(t, s1)
	assert.Nil(t, s2)

	assert.Equal(t, 390, s1.PrepStartMin)
	assert.Equal(t, 420, s1.ClassStartMin)
	assert.Equal(t, 600, s1.ClassEndMin)
	assert.Equal(t, "2026-03-02", s1.Date)
	assert.NotEmpty(t, s1.Room)

	// class ends before the shift midpoint, so the meal anchors there
	require.NotNil(t, meal)
	assert.Equal(t, 675, *meal)
}

func TestBuildDayNoPrepStartsAtShiftStart(t *testing.T) {
	b, catalog := newTestBuilder(t, models.ConstraintSet{})
	shift, _ := catalog.Shift("A1")
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	course := mustCourse(t, catalog, "Rynglok - Axial Swage") // 2.0h, no prep
	s1, _, _ := b.buildDay(shift, monday, "Katie", course, nil)
	require.NotNil(t, s1)
	assert.Equal(t, 390, s1.PrepStartMin)
	assert.Equal(t, 390, s1.ClassStartMin)
	assert.Equal(t, 510, s1.ClassEndMin)
}

func TestBuildDayTwoClasses(t *testing.T) {
	b, catalog := newTestBuilder(t, models.ConstraintSet{})
	shift, _ := catalog.Shift("A1")
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	course1 := mustCourse(t, catalog, "Safety Wire / Cable Installation")  // 3.0h
	course2 := mustCourse(t, catalog, "Smart Torque") // 2.0h
	s1, s2, meal := b.buildDay(shift, monday, "Katie", course1, &course2)
	require.NotNil(t, s1)
	require.NotNil(t, s2)
	require.NotNil(t, meal)

	assert.Equal(t, 675, *meal) // max(class end 600, midpoint 675)
	assert.Equal(t, 705, s2.PrepStartMin)
	assert.Equal(t, 735, s2.ClassStartMin)
	assert.Equal(t, 855, s2.ClassEndMin)
	assert.NotEqual(t, s1.ID, s2.ID)
}

func TestBuildDayMealAfterLateFirstClass(t *testing.T) {
	b, catalog := newTestBuilder(t, models.ConstraintSet{})
	shift, _ := catalog.Shift("A1")
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	course := mustCourse(t, catalog, "Strain Gauge Installation") // 4.0h, ends 11:00 at 660
	_, _, meal := b.buildDay(shift, monday, "Katie", course, nil)
	require.NotNil(t, meal)
	assert.Equal(t, 675, *meal, "midpoint still later than the class end")
}

func TestBuildDayAllDayCourse(t *testing.T) {
	b, catalog := newTestBuilder(t, models.ConstraintSet{})
	shift, _ := catalog.Shift("A1")
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	course := mustCourse(t, catalog, "IPC 620")
	s1, s2, meal := b.buildDay(shift, monday, "Katie", course, nil)
	require.NotNil(t, s1)
	assert.Nil(t, s2)
	assert.Nil(t, meal)
	assert.Equal(t, 390, s1.ClassStartMin)
	assert.Equal(t, 750, s1.ClassEndMin)
	assert.Equal(t, s1.ClassStartMin, s1.PrepStartMin)
	assert.Equal(t, models.AvionicsLab, s1.Room)
}

func TestBuildDayMeetingSplitsDayWithoutMeal(t *testing.T) {
	b, catalog := newTestBuilder(t, models.ConstraintSet{})
	shift, _ := catalog.Shift("A1")
	allStaffTuesday := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	course1 := mustCourse(t, catalog, "Safety Wire / Cable Installation")  // ends 10:00, before the meeting
	course2 := mustCourse(t, catalog, "Smart Torque") // placed after the meeting
	s1, s2, meal := b.buildDay(shift, allStaffTuesday, "Katie", course1, &course2)
	require.NotNil(t, s1)
	require.NotNil(t, s2)
	assert.Nil(t, meal, "the meeting already splits the day")

	assert.Equal(t, 600, s1.ClassEndMin)
	assert.Equal(t, 750, s2.PrepStartMin, "second prep begins when the all-staff meeting ends")
	assert.Equal(t, 780, s2.ClassStartMin)
	assert.Equal(t, 900, s2.ClassEndMin)
}

func TestBuildDayCompressesAgainstMeeting(t *testing.T) {
	catalog := &models.Catalog{
		Courses: []models.Course{{
			Name: "Compliance Brief", DurationHours: 4.5, AbutsAllStaff: true,
		}},
		Shifts: []models.Shift{{Key: "A1", StartMins: 390, EndMins: 960,
			Weekdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday}}},
		Rooms:       []models.Room{{Name: "Room 101"}},
		Instructors: []models.Instructor{{Name: "Katie", Shift: "A1"}},
	}
	cons, err := newConstraintIndex(models.ConstraintSet{})
	require.NoError(t, err)
	b := &sessionBuilder{catalog: catalog, cons: cons, occ: newOccupancy(catalog)}

	shift := catalog.Shifts[0]
	allStaffTuesday := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	s1, _, _ := b.buildDay(shift, allStaffTuesday, "Katie", catalog.Courses[0], nil)
	require.NotNil(t, s1)
	// 270 minutes would overrun 11:00 from the default 07:00 start, so the
	// class slides back to end exactly at the meeting.
	assert.Equal(t, 390, s1.ClassStartMin)
	assert.Equal(t, 660, s1.ClassEndMin)
	assert.Equal(t, 390, s1.PrepStartMin, "prep clamps at the shift start")
}

func TestBuildDayDefersPastMeeting(t *testing.T) {
	catalog := &models.Catalog{
		Courses: []models.Course{{Name: "Long Brief", DurationHours: 1.0}},
		Shifts: []models.Shift{{Key: "M", StartMins: 600, EndMins: 1200,
			Weekdays: []time.Weekday{time.Tuesday}}},
		Rooms:       []models.Room{{Name: "Room 101"}},
		Instructors: []models.Instructor{{Name: "Katie", Shift: "M"}},
	}
	cons, err := newConstraintIndex(models.ConstraintSet{})
	require.NoError(t, err)
	b := &sessionBuilder{catalog: catalog, cons: cons, occ: newOccupancy(catalog)}

	shift := catalog.Shifts[0]
	allStaffTuesday := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	s1, _, _ := b.buildDay(shift, allStaffTuesday, "Katie", catalog.Courses[0], nil)
	require.NotNil(t, s1)
	// 10:30-11:30 would cross the all-staff meeting and the course may not
	// abut it, so the class moves past the 12:30 resume.
	assert.Equal(t, 780, s1.ClassStartMin)
	assert.Equal(t, 840, s1.ClassEndMin)
	assert.Equal(t, 750, s1.PrepStartMin)
}

func TestBuildDayOvernightShift(t *testing.T) {
	b, catalog := newTestBuilder(t, models.ConstraintSet{})
	shift, _ := catalog.Shift("B")
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	course := mustCourse(t, catalog, "Safety Wire / Cable Installation")
	s1, _, meal := b.buildDay(shift, monday, "Dave", course, nil)
	require.NotNil(t, s1)
	assert.Equal(t, 1020, s1.ClassStartMin)
	assert.Equal(t, 1200, s1.ClassEndMin)
	require.NotNil(t, meal)
	assert.Equal(t, 1275, *meal, "meal sits at the wrapped midpoint past midnight")
}

func TestBuildDayRespectsPTO(t *testing.T) {
	b, catalog := newTestBuilder(t, models.ConstraintSet{
		PTO: []models.PTOEntry{{Instructor: "Katie", Date: "2026-03-02"}},
	})
	shift, _ := catalog.Shift("A1")
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	course := mustCourse(t, catalog, "Safety Wire / Cable Installation")
	s1, s2, meal := b.buildDay(shift, monday, "Katie", course, nil)
	assert.Nil(t, s1)
	assert.Nil(t, s2)
	assert.Nil(t, meal)
}

func TestBuildDayRoomContention(t *testing.T) {
	b, catalog := newTestBuilder(t, models.ConstraintSet{})
	shift, _ := catalog.Shift("A1")
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	course := mustCourse(t, catalog, "Safety Wire / Cable Installation")
	first, _, _ := b.buildDay(shift, monday, "Katie", course, nil)
	require.NotNil(t, first)
	b.occ.commit(*first)

	second, _, _ := b.buildDay(shift, monday, "David", course, nil)
	require.NotNil(t, second)
	assert.NotEqual(t, first.Room, second.Room, "simultaneous classes take different rooms")
}
