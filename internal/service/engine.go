package service

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/mfg-academy/training-scheduler-api/internal/models"
)

// engineInput carries everything one generation run needs. Rand drives
// the quota-fill day shuffle and the shadow tiebreak so runs are
// reproducible under a fixed seed.
type engineInput struct {
	Year           int
	Month          int
	Catalog        *models.Catalog
	Qualifications models.QualificationMatrix
	Requirements   map[string]int
	Constraints    models.ConstraintSet
	Removed        map[string]bool
	GapFillPasses  int
	Rand           *rand.Rand
}

// engine runs the multi-phase greedy placement for one month. Phases
// never revisit earlier decisions; unmet goals surface as flags instead.
type engine struct {
	in   engineInput
	cons *constraintIndex
	occ  *occupancy
	b    *sessionBuilder

	sessions  []models.Session
	flags     []string
	meals     map[slotKey]int
	usedSlots map[slotKey]bool

	dates        []time.Time
	datesByShift map[string][]time.Time
	leads        []models.Instructor
	shadowers    []models.Instructor
	leadsByShift map[string][]models.Instructor
}

func newEngine(in engineInput) (*engine, error) {
	cons, err := newConstraintIndex(in.Constraints)
	if err != nil {
		return nil, err
	}
	if in.GapFillPasses <= 0 {
		in.GapFillPasses = 3
	}
	if in.Rand == nil {
		in.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e := &engine{
		in:           in,
		cons:         cons,
		occ:          newOccupancy(in.Catalog),
		meals:        make(map[slotKey]int),
		usedSlots:    make(map[slotKey]bool),
		datesByShift: make(map[string][]time.Time),
		leadsByShift: make(map[string][]models.Instructor),
	}
	e.b = &sessionBuilder{catalog: in.Catalog, cons: cons, occ: e.occ}

	e.dates = monthDates(in.Year, in.Month)
	for _, sh := range in.Catalog.Shifts {
		e.datesByShift[sh.Key] = shiftDates(e.dates, sh)
	}
	for _, inst := range in.Catalog.Instructors {
		if in.Removed[inst.Name] {
			continue
		}
		if inst.CrossTrainingOnly {
			e.shadowers = append(e.shadowers, inst)
		} else {
			e.leads = append(e.leads, inst)
			e.leadsByShift[inst.Shift] = append(e.leadsByShift[inst.Shift], inst)
		}
	}
	return e, nil
}

func (e *engine) run() *models.GenerationResult {
	e.phaseShiftCoverage()
	e.phaseAllDayCoverage()
	e.phaseQuotaFill()
	e.phaseDayFill()
	for i := 0; i < e.in.GapFillPasses; i++ {
		if !e.gapFillPass() {
			break
		}
	}
	e.phaseWeeklyFrequency()
	e.phaseShadows()

	mealBreaks := make([]models.MealBreak, 0, len(e.meals))
	for key, start := range e.meals {
		mealBreaks = append(mealBreaks, models.MealBreak{
			Instructor: key.Instructor,
			Date:       key.Date,
			StartMin:   start,
		})
	}
	sort.Slice(mealBreaks, func(i, j int) bool {
		if mealBreaks[i].Date != mealBreaks[j].Date {
			return mealBreaks[i].Date < mealBreaks[j].Date
		}
		return mealBreaks[i].Instructor < mealBreaks[j].Instructor
	})

	return &models.GenerationResult{
		Year:       e.in.Year,
		Month:      e.in.Month,
		Sessions:   e.sessions,
		Flags:      e.flags,
		MealBreaks: mealBreaks,
	}
}

// totalRemaining is how many more placements the course needs month-wide.
func (e *engine) totalRemaining(course string) int {
	rem := e.in.Requirements[course] - e.occ.totalPlaced(course)
	if rem < 0 {
		return 0
	}
	return rem
}

// shiftSaturated caps repeats of a course on one shift: a shift carries a
// course at most max(1, requirement) times before the pickers move on.
func (e *engine) shiftSaturated(shiftKey, course string) bool {
	cap := e.in.Requirements[course]
	if cap < 1 {
		cap = 1
	}
	return e.occ.placedOn(shiftKey, course) >= cap
}

// dayCourses is the set of course names already taught (non-shadow) on a
// date across all shifts, used to avoid same-day duplicates.
func (e *engine) dayCourses(date string) map[string]bool {
	out := make(map[string]bool)
	for _, s := range e.sessions {
		if s.Date == date && !s.IsShadow() {
			out[s.Course] = true
		}
	}
	return out
}

// qualifiedPool lists the non-all-day courses the instructor can lead,
// most-needed first, least-repeated-on-shift first.
func (e *engine) qualifiedPool(instructor, shiftKey string) []string {
	var pool []string
	for _, c := range e.in.Catalog.Courses {
		if !c.AllDay && e.in.Qualifications.IsQualified(instructor, c.Name) {
			pool = append(pool, c.Name)
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		ri, rj := e.totalRemaining(pool[i]), e.totalRemaining(pool[j])
		if ri != rj {
			return ri > rj
		}
		return e.occ.placedOn(shiftKey, pool[i]) < e.occ.placedOn(shiftKey, pool[j])
	})
	return pool
}

func inBand(hours, lo, hi float64) bool {
	return hours >= lo && hours <= hi
}

// pickSlot1 chooses the first class of a day: prefer long courses still
// needed, then long courses, then anything unsaturated, then anything.
// Courses already taught that day sink to the back of each tier.
func (e *engine) pickSlot1(pool []string, shiftKey, usedCourse string, dayCourses map[string]bool) string {
	dup := func(name string) int {
		if dayCourses[name] {
			return 1
		}
		return 0
	}
	pickBest := func(filter func(string) bool) string {
		var tier []string
		for _, name := range pool {
			if name == usedCourse {
				continue
			}
			if filter(name) {
				tier = append(tier, name)
			}
		}
		sort.SliceStable(tier, func(i, j int) bool { return dup(tier[i]) < dup(tier[j]) })
		if len(tier) > 0 {
			return tier[0]
		}
		return ""
	}
	hours := func(name string) float64 {
		c, _ := e.in.Catalog.Course(name)
		return c.DurationHours
	}
	if name := pickBest(func(n string) bool {
		return inBand(hours(n), models.Slot1MinHours, models.Slot1MaxHours) &&
			!e.shiftSaturated(shiftKey, n) && e.totalRemaining(n) > 0
	}); name != "" {
		return name
	}
	if name := pickBest(func(n string) bool {
		return inBand(hours(n), models.Slot1MinHours, models.Slot1MaxHours) && !e.shiftSaturated(shiftKey, n)
	}); name != "" {
		return name
	}
	if name := pickBest(func(n string) bool { return !e.shiftSaturated(shiftKey, n) }); name != "" {
		return name
	}
	return pickBest(func(string) bool { return true })
}

// pickSlot2 chooses the afternoon class: a short course still needed and
// unsaturated, falling back to any short unsaturated course. Returns ""
// when nothing fits the band.
func (e *engine) pickSlot2(pool []string, shiftKey, excludeCourse string, dayCourses map[string]bool) string {
	type ranked struct {
		name string
		dup  int
		scc  int
	}
	rank := func(names []string) string {
		out := make([]ranked, 0, len(names))
		for _, n := range names {
			d := 0
			if dayCourses[n] {
				d = 1
			}
			out = append(out, ranked{name: n, dup: d, scc: e.occ.placedOn(shiftKey, n)})
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].dup != out[j].dup {
				return out[i].dup < out[j].dup
			}
			return out[i].scc < out[j].scc
		})
		if len(out) > 0 {
			return out[0].name
		}
		return ""
	}
	var best, ok []string
	for _, name := range pool {
		if name == excludeCourse {
			continue
		}
		c, _ := e.in.Catalog.Course(name)
		if !inBand(c.DurationHours, models.Slot2MinHours, models.Slot2MaxHours) || e.shiftSaturated(shiftKey, name) {
			continue
		}
		if e.totalRemaining(name) > 0 {
			best = append(best, name)
		}
		ok = append(ok, name)
	}
	if name := rank(best); name != "" {
		return name
	}
	return rank(ok)
}

func (e *engine) commitDay(s1, s2 *models.Session, meal *int, key slotKey) {
	e.occ.commit(*s1)
	e.sessions = append(e.sessions, *s1)
	if s2 != nil {
		e.occ.commit(*s2)
		e.sessions = append(e.sessions, *s2)
	}
	if meal != nil {
		e.meals[key] = *meal
	}
	e.usedSlots[key] = true
}

// tryAssignForced places the given course as the day's first class,
// pairing it with a second class when one fits.
func (e *engine) tryAssignForced(instructor string, shift models.Shift, d time.Time, forced string) bool {
	key := slotKey{Instructor: instructor, Date: isoDate(d)}
	if e.usedSlots[key] || e.cons.dayBlocked(instructor, key.Date) {
		return false
	}
	course1, ok := e.in.Catalog.Course(forced)
	if !ok {
		return false
	}
	pool := e.qualifiedPool(instructor, shift.Key)
	dc := e.dayCourses(key.Date)
	var course2 *models.Course
	if name := e.pickSlot2(pool, shift.Key, forced, dc); name != "" {
		c2, _ := e.in.Catalog.Course(name)
		course2 = &c2
	}
	s1, s2, meal := e.b.buildDay(shift, d, instructor, course1, course2)
	if s1 == nil && course2 != nil {
		s1, s2, meal = e.b.buildDay(shift, d, instructor, course1, nil)
	}
	if s1 == nil {
		return false
	}
	e.commitDay(s1, s2, meal, key)
	return true
}

// tryAssignDay fills an untouched instructor-day with whatever the
// pickers favour, preferring an outstanding all-day course.
func (e *engine) tryAssignDay(instructor string, shift models.Shift, d time.Time) bool {
	key := slotKey{Instructor: instructor, Date: isoDate(d)}
	if e.usedSlots[key] || e.cons.dayBlocked(instructor, key.Date) {
		return false
	}
	for _, c := range e.in.Catalog.Courses {
		if !c.AllDay || !e.in.Qualifications.IsQualified(instructor, c.Name) {
			continue
		}
		if e.totalRemaining(c.Name) > 0 {
			if s1, _, _ := e.b.buildDay(shift, d, instructor, c, nil); s1 != nil {
				e.occ.commit(*s1)
				e.sessions = append(e.sessions, *s1)
				e.usedSlots[key] = true
				return true
			}
		}
	}
	pool := e.qualifiedPool(instructor, shift.Key)
	dc := e.dayCourses(key.Date)
	c1Name := e.pickSlot1(pool, shift.Key, "", dc)
	if c1Name == "" {
		return false
	}
	course1, _ := e.in.Catalog.Course(c1Name)
	var course2 *models.Course
	if name := e.pickSlot2(pool, shift.Key, c1Name, dc); name != "" {
		c2, _ := e.in.Catalog.Course(name)
		course2 = &c2
	}
	s1, s2, meal := e.b.buildDay(shift, d, instructor, course1, course2)
	if s1 == nil {
		s1, s2, meal = e.b.buildDay(shift, d, instructor, course1, nil)
	}
	if s1 == nil {
		for _, name := range pool {
			c, _ := e.in.Catalog.Course(name)
			s1, s2, meal = e.b.buildDay(shift, d, instructor, c, nil)
			if s1 != nil {
				break
			}
		}
	}
	if s1 == nil {
		return false
	}
	e.commitDay(s1, s2, meal, key)
	return true
}

// leastLoaded returns a copy of the instructors sorted by how many
// sessions each already carries.
func (e *engine) leastLoaded(insts []models.Instructor) []models.Instructor {
	out := append([]models.Instructor(nil), insts...)
	sort.SliceStable(out, func(i, j int) bool {
		return e.occ.counts[out[i].Name] < e.occ.counts[out[j].Name]
	})
	return out
}

func (e *engine) qualifiedLeads(shiftKey, course string) []models.Instructor {
	var out []models.Instructor
	for _, inst := range e.leadsByShift[shiftKey] {
		if e.in.Qualifications.IsQualified(inst.Name, course) {
			out = append(out, inst)
		}
	}
	return out
}

// phaseShiftCoverage guarantees every teachable non-all-day course lands
// at least once on every shift that carries a qualified instructor.
func (e *engine) phaseShiftCoverage() {
	for _, shift := range e.in.Catalog.Shifts {
		dates := e.datesByShift[shift.Key]
		if len(dates) == 0 {
			continue
		}
		for _, course := range e.in.Catalog.Courses {
			if course.AllDay || e.occ.placedOn(shift.Key, course.Name) > 0 {
				continue
			}
			qualified := e.qualifiedLeads(shift.Key, course.Name)
			if len(qualified) == 0 {
				e.flags = append(e.flags, fmt.Sprintf("%s has no qualified instructor on %s - skipped.", course.Name, shift.Label))
				continue
			}
			placed := false
			for _, d := range dates {
				for _, inst := range e.leastLoaded(qualified) {
					if e.usedSlots[slotKey{Instructor: inst.Name, Date: isoDate(d)}] {
						continue
					}
					if e.tryAssignForced(inst.Name, shift, d, course.Name) {
						placed = true
						break
					}
				}
				if placed {
					break
				}
			}
			if !placed {
				e.flags = append(e.flags, fmt.Sprintf("Could not schedule %s on %s (minimum once).", course.Name, shift.Label))
			}
		}
	}
}

// phaseAllDayCoverage places each all-day course once per shift where
// possible. Misses stay silent; the room-restricted labs frequently have
// no slot on every shift.
func (e *engine) phaseAllDayCoverage() {
	for _, shift := range e.in.Catalog.Shifts {
		dates := e.datesByShift[shift.Key]
		if len(dates) == 0 {
			continue
		}
		for _, course := range e.in.Catalog.Courses {
			if !course.AllDay || e.occ.placedOn(shift.Key, course.Name) > 0 {
				continue
			}
			qualified := e.qualifiedLeads(shift.Key, course.Name)
			if len(qualified) == 0 {
				continue
			}
			placed := false
			for _, d := range dates {
				for _, inst := range e.leastLoaded(qualified) {
					key := slotKey{Instructor: inst.Name, Date: isoDate(d)}
					if e.usedSlots[key] {
						continue
					}
					if s1, _, _ := e.b.buildDay(shift, d, inst.Name, course, nil); s1 != nil {
						e.occ.commit(*s1)
						e.sessions = append(e.sessions, *s1)
						e.usedSlots[key] = true
						placed = true
						break
					}
				}
				if placed {
					break
				}
			}
		}
	}
}

// phaseQuotaFill chases each course's monthly requirement. Shifts are
// visited proportionally to their headcount and each shift's days are
// shuffled so repeats spread across the month instead of clustering.
func (e *engine) phaseQuotaFill() {
	var order []string
	for _, shift := range e.in.Catalog.Shifts {
		n := len(e.leadsByShift[shift.Key])
		if n == 0 && shift.Key == "B" {
			n = 1
		}
		for i := 0; i < n; i++ {
			order = append(order, shift.Key)
		}
	}
	order = repeatShiftOrder(order, 4)

	for _, course := range e.in.Catalog.Courses {
		name := course.Name
		req := e.in.Requirements[name]
		need := req - e.occ.totalPlaced(name)
		if need <= 0 {
			continue
		}
		for _, shiftKey := range order {
			if need <= 0 {
				break
			}
			shift, _ := e.in.Catalog.Shift(shiftKey)
			dates := append([]time.Time(nil), e.datesByShift[shiftKey]...)
			e.in.Rand.Shuffle(len(dates), func(i, j int) {
				dates[i], dates[j] = dates[j], dates[i]
			})
			for _, d := range dates {
				if need <= 0 {
					break
				}
				for _, inst := range e.leastLoaded(e.qualifiedLeads(shiftKey, name)) {
					if e.usedSlots[slotKey{Instructor: inst.Name, Date: isoDate(d)}] {
						continue
					}
					if e.tryAssignForced(inst.Name, shift, d, name) {
						need--
						break
					}
				}
			}
		}
		if need > 0 {
			e.flags = append(e.flags, fmt.Sprintf("Could only schedule %s %d/%d times.", name, req-need, req))
		}
	}
}

func repeatShiftOrder(order []string, times int) []string {
	out := make([]string, 0, len(order)*times)
	for i := 0; i < times; i++ {
		out = append(out, order...)
	}
	return out
}

// phaseDayFill walks day indexes interleaved across shifts and gives
// every still-free instructor-day a teaching load.
func (e *engine) phaseDayFill() {
	maxLen := 0
	for _, shift := range e.in.Catalog.Shifts {
		if n := len(e.datesByShift[shift.Key]); n > maxLen {
			maxLen = n
		}
	}
	for di := 0; di < maxLen; di++ {
		for _, shift := range e.in.Catalog.Shifts {
			dates := e.datesByShift[shift.Key]
			if di >= len(dates) {
				continue
			}
			for _, inst := range e.leastLoaded(e.leadsByShift[shift.Key]) {
				e.tryAssignDay(inst.Name, shift, dates[di])
			}
		}
	}
}

// gapFillPass appends one extra class to instructor-days that still have
// room after their last block. Returns whether anything changed.
func (e *engine) gapFillPass() bool {
	keys := make([]slotKey, 0, len(e.usedSlots))
	for key := range e.usedSlots {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Instructor != keys[j].Instructor {
			return keys[i].Instructor < keys[j].Instructor
		}
		return keys[i].Date < keys[j].Date
	})

	changed := false
	for _, key := range keys {
		inst, ok := e.in.Catalog.Instructor(key.Instructor)
		if !ok || inst.CrossTrainingOnly {
			continue
		}
		shift, ok := e.in.Catalog.Shift(inst.Shift)
		if !ok {
			continue
		}
		_, shiftEnd := shift.Window()
		d, err := time.Parse("2006-01-02", key.Date)
		if err != nil {
			continue
		}
		mtgStart, mtgResume, hasMeeting := tuesdayMeetingWindow(d)
		lastEnd, ok := e.occ.lastEnd(key)
		if !ok {
			continue
		}
		freeStart := lastEnd + models.MealBreakMins
		if hasMeeting && lastEnd <= mtgStart {
			freeStart = mtgResume
		}
		if freeStart+60 > shiftEnd {
			continue
		}
		avail := shiftEnd - freeStart

		var pool []string
		for _, c := range e.in.Catalog.Courses {
			if c.AllDay || !e.in.Qualifications.IsQualified(key.Instructor, c.Name) {
				continue
			}
			if c.DurationMins()+e.b.prepFor(c) <= avail {
				pool = append(pool, c.Name)
			}
		}
		if len(pool) == 0 {
			continue
		}
		dc := e.dayCourses(key.Date)
		sort.SliceStable(pool, func(i, j int) bool {
			ti, tj := e.occ.totalPlaced(pool[i]), e.occ.totalPlaced(pool[j])
			if ti != tj {
				return ti < tj
			}
			di, dj := 0, 0
			if dc[pool[i]] {
				di = 1
			}
			if dc[pool[j]] {
				dj = 1
			}
			if di != dj {
				return di < dj
			}
			return e.occ.placedOn(shift.Key, pool[i]) < e.occ.placedOn(shift.Key, pool[j])
		})

		for _, name := range pool {
			course, _ := e.in.Catalog.Course(name)
			classStart := freeStart + e.b.prepFor(course)
			classEnd := classStart + course.DurationMins()
			if classEnd > shiftEnd || e.cons.blocked(key.Instructor, key.Date, classStart, classEnd) {
				continue
			}
			room, ok := e.occ.findRoom(e.in.Catalog, course, key.Date, classStart, classEnd)
			if !ok {
				continue
			}
			s := e.b.makeSession(shift, d, key.Instructor, course, freeStart, classStart, classEnd, room)
			e.occ.commit(*s)
			e.sessions = append(e.sessions, *s)
			if _, seen := e.meals[key]; !seen && !hasMeeting {
				e.meals[key] = lastEnd
			}
			changed = true
			break
		}
	}
	return changed
}

// phaseWeeklyFrequency backfills so each non-exempt course appears every
// week on every shift that can teach it, appending to an already-used day
// when no free slot remains.
func (e *engine) phaseWeeklyFrequency() {
	weeks := monthWeeks(e.in.Year, e.in.Month)
	for _, shift := range e.in.Catalog.Shifts {
		for _, course := range e.in.Catalog.Courses {
			if course.WeeklyExempt || course.AllDay {
				continue
			}
			qualified := e.qualifiedLeads(shift.Key, course.Name)
			if len(qualified) == 0 {
				continue
			}
			for _, week := range weeks {
				var workDays []time.Time
				weekSet := make(map[string]bool, len(week))
				for _, d := range week {
					weekSet[isoDate(d)] = true
					if shift.Covers(d.Weekday()) {
						workDays = append(workDays, d)
					}
				}
				if len(workDays) == 0 {
					continue
				}
				already := false
				for _, s := range e.sessions {
					if s.Course == course.Name && s.Shift == shift.Key && !s.IsShadow() && weekSet[s.Date] {
						already = true
						break
					}
				}
				if already {
					continue
				}
				placed := false
				for _, d := range workDays {
					for _, inst := range e.leastLoaded(qualified) {
						if e.cons.dayBlocked(inst.Name, isoDate(d)) {
							continue
						}
						key := slotKey{Instructor: inst.Name, Date: isoDate(d)}
						if !e.usedSlots[key] {
							if e.tryAssignForced(inst.Name, shift, d, course.Name) {
								placed = true
								break
							}
							continue
						}
						if e.appendToUsedDay(inst.Name, shift, d, course) {
							placed = true
							break
						}
					}
					if placed {
						break
					}
				}
				if !placed {
					e.flags = append(e.flags, fmt.Sprintf("Weekly freq: '%s' missing on %s week of %s.", course.Name, shift.Label, weekLabel(week)))
				}
			}
		}
	}
}

// appendToUsedDay tacks one more class after an instructor's last block.
func (e *engine) appendToUsedDay(instructor string, shift models.Shift, d time.Time, course models.Course) bool {
	key := slotKey{Instructor: instructor, Date: isoDate(d)}
	_, shiftEnd := shift.Window()
	mtgStart, mtgResume, hasMeeting := tuesdayMeetingWindow(d)
	lastEnd, ok := e.occ.lastEnd(key)
	if !ok {
		return false
	}
	freeStart := lastEnd + models.MealBreakMins
	if hasMeeting && lastEnd <= mtgStart {
		freeStart = mtgResume
	}
	classStart := freeStart + e.b.prepFor(course)
	classEnd := classStart + course.DurationMins()
	if classEnd > shiftEnd || e.cons.blocked(instructor, key.Date, classStart, classEnd) {
		return false
	}
	room, found := e.occ.findRoom(e.in.Catalog, course, key.Date, classStart, classEnd)
	if !found {
		return false
	}
	s := e.b.makeSession(shift, d, instructor, course, freeStart, classStart, classEnd, room)
	e.occ.commit(*s)
	e.sessions = append(e.sessions, *s)
	return true
}

// phaseShadows assigns cross-training instructors to observe lead
// sessions: at most one per day, favouring courses with the fewest
// shadows and leads who have been shadowed least.
func (e *engine) phaseShadows() {
	var shadows []models.Session
	shadowCountByCourse := func(course string) int {
		n := 0
		for _, s := range shadows {
			if s.Course == course {
				n++
			}
		}
		return n
	}

	for _, ct := range e.shadowers {
		shift, ok := e.in.Catalog.Shift(ct.Shift)
		if !ok {
			continue
		}
		shadowDays := make(map[string]int)
		tiebreak := make(map[string]float64)
		for _, lead := range e.leadsByShift[ct.Shift] {
			shadowDays[lead.Name] = 0
			tiebreak[lead.Name] = e.in.Rand.Float64()
		}

		for _, d := range e.datesByShift[shift.Key] {
			date := isoDate(d)
			if e.cons.dayBlocked(ct.Name, date) {
				continue
			}
			var candidates []models.Session
			for _, s := range e.sessions {
				if s.Date == date && s.Shift == shift.Key && !s.IsShadow() &&
					e.in.Qualifications.IsCrossTraining(ct.Name, s.Course) {
					candidates = append(candidates, s)
				}
			}
			if len(candidates) == 0 {
				continue
			}
			sort.SliceStable(candidates, func(i, j int) bool {
				ci, cj := shadowCountByCourse(candidates[i].Course), shadowCountByCourse(candidates[j].Course)
				if ci != cj {
					return ci < cj
				}
				di, dj := shadowDays[candidates[i].Instructor], shadowDays[candidates[j].Instructor]
				if di != dj {
					return di < dj
				}
				return tiebreak[candidates[i].Instructor] < tiebreak[candidates[j].Instructor]
			})

			var dayBlocks []timeBlock
			overlaps := func(start, end int) bool {
				for _, b := range dayBlocks {
					if end > b.start && start < b.end {
						return true
					}
				}
				return false
			}

			for _, lead := range candidates {
				if e.cons.blocked(ct.Name, date, lead.ClassStartMin, lead.ClassEndMin) {
					continue
				}
				if overlaps(lead.ClassStartMin, lead.ClassEndMin) {
					continue
				}
				course, _ := e.in.Catalog.Course(lead.Course)
				shadow := *e.b.makeSession(shift, d, ct.Name, course, lead.PrepStartMin, lead.ClassStartMin, lead.ClassEndMin, lead.Room)
				shadow.ShadowOf = lead.Instructor
				e.occ.commitShadow(shadow)
				shadows = append(shadows, shadow)
				e.usedSlots[slotKey{Instructor: ct.Name, Date: date}] = true
				dayBlocks = append(dayBlocks, timeBlock{start: lead.ClassStartMin, end: lead.ClassEndMin})
				shadowDays[lead.Instructor]++
				break
			}
		}
	}
	e.sessions = append(e.sessions, shadows...)
}
