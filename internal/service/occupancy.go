package service

import (
	"sort"

	"github.com/mfg-academy/training-scheduler-api/internal/models"
)

// slotKey identifies an instructor-day pair.
type slotKey struct {
	Instructor string
	Date       string
}

type timeBlock struct {
	start  int
	end    int
	course string
}

type roomKey struct {
	Room string
	Date string
}

// occupancy tracks what the generator has already committed: instructor
// day ledgers (prep start through class end), room bookings, per
// instructor session counts, and per shift-course placement counts.
type occupancy struct {
	instructors map[slotKey][]timeBlock
	rooms       map[roomKey][]timeBlock
	counts      map[string]int
	shiftCourse map[string]map[string]int
}

func newOccupancy(catalog *models.Catalog) *occupancy {
	occ := &occupancy{
		instructors: make(map[slotKey][]timeBlock),
		rooms:       make(map[roomKey][]timeBlock),
		counts:      make(map[string]int),
		shiftCourse: make(map[string]map[string]int),
	}
	for _, inst := range catalog.Instructors {
		occ.counts[inst.Name] = 0
	}
	for _, sh := range catalog.Shifts {
		byCourse := make(map[string]int, len(catalog.Courses))
		for _, c := range catalog.Courses {
			byCourse[c.Name] = 0
		}
		occ.shiftCourse[sh.Key] = byCourse
	}
	return occ
}

// commit records a placed session in every ledger. Shadows occupy the
// instructor ledger and bump the instructor count only.
func (o *occupancy) commit(s models.Session) {
	key := slotKey{Instructor: s.Instructor, Date: s.Date}
	o.instructors[key] = append(o.instructors[key], timeBlock{
		start:  s.PrepStartMin,
		end:    s.ClassEndMin,
		course: s.Course,
	})
	sort.Slice(o.instructors[key], func(i, j int) bool {
		return o.instructors[key][i].start < o.instructors[key][j].start
	})
	o.counts[s.Instructor]++
	if s.IsShadow() {
		return
	}
	rk := roomKey{Room: s.Room, Date: s.Date}
	o.rooms[rk] = append(o.rooms[rk], timeBlock{
		start:  s.ClassStartMin,
		end:    s.ClassEndMin,
		course: s.Course,
	})
	sort.Slice(o.rooms[rk], func(i, j int) bool {
		return o.rooms[rk][i].start < o.rooms[rk][j].start
	})
	if byCourse, ok := o.shiftCourse[s.Shift]; ok {
		byCourse[s.Course]++
	}
}

// commitShadow records an observation block without touching rooms or
// shift-course counts.
func (o *occupancy) commitShadow(s models.Session) {
	key := slotKey{Instructor: s.Instructor, Date: s.Date}
	o.instructors[key] = append(o.instructors[key], timeBlock{
		start:  s.ClassStartMin,
		end:    s.ClassEndMin,
		course: s.Course,
	})
	sort.Slice(o.instructors[key], func(i, j int) bool {
		return o.instructors[key][i].start < o.instructors[key][j].start
	})
	o.counts[s.Instructor]++
}

// findRoom returns the first room free over [classStart, classEnd) on the
// date. Restricted courses may only use their named room; everything else
// draws from the general pool.
func (o *occupancy) findRoom(catalog *models.Catalog, course models.Course, date string, classStart, classEnd int) (string, bool) {
	var candidates []string
	if course.RequiredRoom != "" {
		candidates = []string{course.RequiredRoom}
	} else {
		candidates = catalog.GeneralRooms()
	}
	for _, room := range candidates {
		busy := o.rooms[roomKey{Room: room, Date: date}]
		free := true
		for _, b := range busy {
			if classEnd > b.start && classStart < b.end {
				free = false
				break
			}
		}
		if free {
			return room, true
		}
	}
	return "", false
}

// lastEnd returns the latest block end in the instructor's day ledger.
func (o *occupancy) lastEnd(key slotKey) (int, bool) {
	blocks := o.instructors[key]
	if len(blocks) == 0 {
		return 0, false
	}
	last := blocks[0].end
	for _, b := range blocks[1:] {
		if b.end > last {
			last = b.end
		}
	}
	return last, true
}

// totalPlaced sums non-shadow placements of a course across all shifts.
func (o *occupancy) totalPlaced(course string) int {
	total := 0
	for _, byCourse := range o.shiftCourse {
		total += byCourse[course]
	}
	return total
}

// placedOn returns non-shadow placements of a course on one shift.
func (o *occupancy) placedOn(shiftKey, course string) int {
	return o.shiftCourse[shiftKey][course]
}
