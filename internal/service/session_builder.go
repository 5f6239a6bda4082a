package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/mfg-academy/training-scheduler-api/internal/models"
)

// sessionBuilder lays out a single instructor's teaching day: up to two
// classes with prep blocks, a meal break, and deference to the recurring
// Tuesday meetings.
type sessionBuilder struct {
	catalog *models.Catalog
	cons    *constraintIndex
	occ     *occupancy
}

func (b *sessionBuilder) prepFor(course models.Course) int {
	if course.NoPrep {
		return 0
	}
	return models.PrepMins
}

// mayEndAtMeeting reports whether a class may run right up to the
// meeting start. The long all-staff meeting only tolerates the short
// compliance courses ahead of it.
func (b *sessionBuilder) mayEndAtMeeting(kind meetingKind, course models.Course) bool {
	if kind != meetingAllStaff {
		return true
	}
	return course.AbutsAllStaff
}

func (b *sessionBuilder) makeSession(shift models.Shift, d time.Time, instructor string, course models.Course, prepStart, classStart, classEnd int, room string) *models.Session {
	return &models.Session{
		ID:            uuid.NewString(),
		Date:          isoDate(d),
		Shift:         shift.Key,
		Course:        course.Name,
		Instructor:    instructor,
		Room:          room,
		PrepStartMin:  prepStart,
		ClassStartMin: classStart,
		ClassEndMin:   classEnd,
		DurationHours: course.DurationHours,
		AllDay:        course.AllDay,
	}
}

// buildDay places course1 (and optionally course2) for the instructor on
// the date. Returns the sessions that fit plus the meal start when one
// was carved out; a nil first session means nothing fit.
func (b *sessionBuilder) buildDay(shift models.Shift, d time.Time, instructor string, course1 models.Course, course2 *models.Course) (*models.Session, *models.Session, *int) {
	shiftStart, shiftEnd := shift.Window()
	midpoint := shift.Midpoint()
	date := isoDate(d)
	dur1 := course1.DurationMins()
	mtgStart, mtgResume, hasMeeting := tuesdayMeetingWindow(d)
	kind := tuesdayMeeting(d)

	if course1.AllDay {
		classStart := shiftStart
		classEnd := classStart + dur1
		if classEnd > shiftEnd || b.cons.blocked(instructor, date, classStart, classEnd) {
			return nil, nil, nil
		}
		room, ok := b.occ.findRoom(b.catalog, course1, date, classStart, classEnd)
		if !ok {
			return nil, nil, nil
		}
		return b.makeSession(shift, d, instructor, course1, classStart, classStart, classEnd, room), nil, nil
	}

	prep1 := b.prepFor(course1)
	classStart := shiftStart + prep1
	classEnd := classStart + dur1
	if hasMeeting {
		switch {
		case classStart < mtgStart && classEnd > mtgStart:
			// class would run into the meeting: compress up against it
			// when allowed, otherwise defer past it.
			if b.mayEndAtMeeting(kind, course1) && mtgStart-dur1 >= shiftStart {
				classStart = mtgStart - dur1
				classEnd = mtgStart
			} else {
				classStart = mtgResume + prep1
				classEnd = classStart + dur1
			}
		case mtgStart <= classStart && classStart < mtgResume:
			classStart = mtgResume + prep1
			classEnd = classStart + dur1
		}
	}
	if classEnd > shiftEnd || b.cons.blocked(instructor, date, classStart, classEnd) {
		return nil, nil, nil
	}
	room1, ok := b.occ.findRoom(b.catalog, course1, date, classStart, classEnd)
	if !ok {
		return nil, nil, nil
	}
	prepStart := classStart - prep1
	if prepStart < shiftStart {
		prepStart = shiftStart
	}
	s1 := b.makeSession(shift, d, instructor, course1, prepStart, classStart, classEnd, room1)

	if course2 == nil {
		if hasMeeting && classEnd <= mtgStart {
			return s1, nil, nil
		}
		meal := classEnd
		if midpoint > meal {
			meal = midpoint
		}
		return s1, nil, &meal
	}

	dur2 := course2.DurationMins()
	prep2 := b.prepFor(*course2)
	var mealStart *int
	var prepStart2, classStart2 int
	if hasMeeting && classEnd <= mtgStart {
		// the meeting already splits the day, no separate meal break
		prepStart2 = mtgResume
		classStart2 = prepStart2 + prep2
	} else {
		meal := classEnd
		if midpoint > meal {
			meal = midpoint
		}
		mealStart = &meal
		prepStart2 = meal + models.MealBreakMins
		classStart2 = prepStart2 + prep2
	}
	classEnd2 := classStart2 + dur2
	if classEnd2 > shiftEnd || b.cons.blocked(instructor, date, classStart2, classEnd2) {
		return s1, nil, mealStart
	}
	room2, ok := b.occ.findRoom(b.catalog, *course2, date, classStart2, classEnd2)
	if !ok {
		return s1, nil, mealStart
	}
	s2 := b.makeSession(shift, d, instructor, *course2, prepStart2, classStart2, classEnd2, room2)
	return s1, s2, mealStart
}
