package service

import (
	"sort"

	"github.com/mfg-academy/training-scheduler-api/internal/models"
)

// DetectConflicts scans all session pairs on the same date for class-time
// overlaps. An instructor can never double-book; a room collision only
// counts between lead sessions since shadows share the lead's room.
func DetectConflicts(sessions []models.Session) []models.Conflict {
	var conflicts []models.Conflict
	for i := range sessions {
		for j := i + 1; j < len(sessions); j++ {
			a, b := sessions[i], sessions[j]
			if a.Date != b.Date {
				continue
			}
			if a.ClassEndMin <= b.ClassStartMin || a.ClassStartMin >= b.ClassEndMin {
				continue
			}
			if a.Instructor == b.Instructor {
				conflicts = append(conflicts, models.Conflict{Kind: models.ConflictInstructor, SessionA: a.ID, SessionB: b.ID})
			}
			if a.Room == b.Room && !a.IsShadow() && !b.IsShadow() {
				conflicts = append(conflicts, models.Conflict{Kind: models.ConflictRoom, SessionA: a.ID, SessionB: b.ID})
			}
		}
	}
	return conflicts
}

// ConflictedSessionIDs flattens conflicts to the set of session IDs
// involved, sorted for stable output.
func ConflictedSessionIDs(conflicts []models.Conflict) []string {
	seen := make(map[string]bool)
	for _, c := range conflicts {
		seen[c.SessionA] = true
		seen[c.SessionB] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
