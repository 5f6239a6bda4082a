package service

import (
	"fmt"
	"time"

	"github.com/mfg-academy/training-scheduler-api/internal/models"
)

const (
	meetingStartMin = 11 * 60      // both Tuesday meetings begin at 11:00
	allStaffEndMin  = 12*60 + 30   // all-staff runs 90 minutes
	copEndMin       = 12 * 60      // CoP runs 60 minutes
)

type meetingKind string

const (
	meetingAllStaff meetingKind = "all_staff"
	meetingCoP      meetingKind = "cop"
	meetingNone     meetingKind = ""
)

// monthDates lists every calendar date of the month in order.
func monthDates(year, month int) []time.Time {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	var dates []time.Time
	for d := first; d.Month() == time.Month(month); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// monthWeeks splits the month into Sunday-Saturday weeks clipped to the
// month boundaries. A week ends after each Saturday.
func monthWeeks(year, month int) [][]time.Time {
	var weeks [][]time.Time
	var current []time.Time
	for _, d := range monthDates(year, month) {
		current = append(current, d)
		if d.Weekday() == time.Saturday {
			weeks = append(weeks, current)
			current = nil
		}
	}
	if len(current) > 0 {
		weeks = append(weeks, current)
	}
	return weeks
}

// shiftDates filters the month to the shift's working weekdays and orders
// them by weekday rank: all first-weekday dates chronologically, then all
// second-weekday dates, and so on. Spreading placements this way keeps a
// course from landing on the same weekday every week.
func shiftDates(dates []time.Time, shift models.Shift) []time.Time {
	var out []time.Time
	for _, d := range dates {
		if shift.Covers(d.Weekday()) {
			out = append(out, d)
		}
	}
	// stable insertion sort by weekday rank; slices are tiny.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && shift.DayRank(out[j].Weekday()) < shift.DayRank(out[j-1].Weekday()); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// tuesdayMeeting returns which recurring meeting lands on the date:
// Tuesdays alternate all-staff, CoP, all-staff, ... through the month.
func tuesdayMeeting(d time.Time) meetingKind {
	if d.Weekday() != time.Tuesday {
		return meetingNone
	}
	// position among the month's Tuesdays
	idx := 0
	for cursor := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC); cursor.Before(d); cursor = cursor.AddDate(0, 0, 1) {
		if cursor.Weekday() == time.Tuesday {
			idx++
		}
	}
	if idx%2 == 0 {
		return meetingAllStaff
	}
	return meetingCoP
}

// tuesdayMeetingWindow returns the blocked window for the date's
// recurring meeting, or ok=false when the date has none.
func tuesdayMeetingWindow(d time.Time) (start, resume int, ok bool) {
	switch tuesdayMeeting(d) {
	case meetingAllStaff:
		return meetingStartMin, allStaffEndMin, true
	case meetingCoP:
		return meetingStartMin, copEndMin, true
	default:
		return 0, 0, false
	}
}

func isoDate(d time.Time) string {
	return d.Format("2006-01-02")
}

// clockToMins parses "HH:MM" into minutes from midnight.
func clockToMins(clock string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q out of range", clock)
	}
	return h*60 + m, nil
}

// weekLabel renders a week span like "Sep 01-Sep 06" for flag messages.
func weekLabel(week []time.Time) string {
	if len(week) == 0 {
		return ""
	}
	return week[0].Format("Jan 02") + "-" + week[len(week)-1].Format("Jan 02")
}
