package service

import (
	"github.com/mfg-academy/training-scheduler-api/internal/models"
)

type meetingBlock struct {
	startMin    int
	endMin      int
	instructors map[string]bool
	label       string
}

// constraintIndex answers availability questions for one generation run.
type constraintIndex struct {
	holidays map[string]bool            // date
	pto      map[string]map[string]bool // instructor -> dates
	meetings map[string][]meetingBlock  // date -> blocks
}

func newConstraintIndex(cs models.ConstraintSet) (*constraintIndex, error) {
	idx := &constraintIndex{
		holidays: make(map[string]bool),
		pto:      make(map[string]map[string]bool),
		meetings: make(map[string][]meetingBlock),
	}
	for _, h := range cs.Holidays {
		idx.holidays[h.Date] = true
	}
	for _, p := range cs.PTO {
		days := idx.pto[p.Instructor]
		if days == nil {
			days = make(map[string]bool)
			idx.pto[p.Instructor] = days
		}
		days[p.Date] = true
	}
	for _, m := range cs.Meetings {
		start, err := clockToMins(m.Start)
		if err != nil {
			return nil, err
		}
		block := meetingBlock{
			startMin:    start,
			endMin:      start + int(m.DurationHrs*60),
			instructors: make(map[string]bool, len(m.Instructors)),
			label:       m.Label,
		}
		for _, name := range m.Instructors {
			block.instructors[name] = true
		}
		idx.meetings[m.Date] = append(idx.meetings[m.Date], block)
	}
	return idx, nil
}

// dayBlocked reports whether the whole date is off limits for the
// instructor: a holiday or a PTO day.
func (ci *constraintIndex) dayBlocked(instructor, date string) bool {
	if ci.holidays[date] {
		return true
	}
	return ci.pto[instructor][date]
}

// blocked reports whether any constraint collides with the window
// [start, end) for the instructor on the date.
func (ci *constraintIndex) blocked(instructor, date string, start, end int) bool {
	if ci.dayBlocked(instructor, date) {
		return true
	}
	for _, m := range ci.meetings[date] {
		if !m.instructors[instructor] {
			continue
		}
		if end > m.startMin && start < m.endMin {
			return true
		}
	}
	return false
}

// meetingAt returns the label of an ad-hoc meeting covering minute t for
// the instructor on the date, used by timetable exports.
func (ci *constraintIndex) meetingAt(instructor, date string, t int) (string, bool) {
	for _, m := range ci.meetings[date] {
		if m.instructors[instructor] && m.startMin <= t && t < m.endMin {
			label := m.label
			if label == "" {
				label = "Meeting"
			}
			return label, true
		}
	}
	return "", false
}
