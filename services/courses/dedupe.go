package courses

import (
	"fmt"

	"courseatlas-backend/lib/catalog"
)

// groupKey is the real identity of a group: the legacy system renders
// the same group redundantly with differing teacher/classroom/schedule
// cells, but a different period end or program means a different group.
func groupKey(g Group) string {
	return fmt.Sprintf("%s\x00%d\x00%s", g.Name, g.PeriodEnd.Unix(), g.Program)
}

// mergeGroups collapses redundant renderings of the same group. Teacher
// and classroom sets are unioned; weekday slots are filled first-write-
// wins, an already-present slot is never replaced.
func mergeGroups(groups []Group) []Group {
	var out []Group
	byKey := map[string]int{}

	for _, g := range groups {
		at, seen := byKey[groupKey(g)]
		if !seen {
			byKey[groupKey(g)] = len(out)
			out = append(out, g)
			continue
		}

		merged := &out[at]
		merged.Teachers = addToSet(merged.Teachers, g.Teachers...)
		merged.Classrooms = addToSet(merged.Classrooms, g.Classrooms...)
		for day, slot := range g.Schedule {
			if merged.Schedule[day] == "" {
				merged.Schedule[day] = slot
			}
		}
		if merged.Activity == "" {
			merged.Activity = g.Activity
		}
		if merged.Spots == 0 {
			merged.Spots = g.Spots
			merged.AvailableSpots = g.AvailableSpots
		}
	}

	return out
}

// dedupeCourses merges rows that hash to the same course id, which
// happens when one query surfaces a course under several faculties.
// locatedBy is the faculty the search ran under; it joins each course's
// faculty set even when not directly observed on the row.
func dedupeCourses(courses []Course, locatedBy string) []Course {
	var out []Course
	byId := map[uint64]int{}

	for _, c := range courses {
		at, seen := byId[c.Id]
		if !seen {
			c.Faculties = addToSet(c.Faculties, locatedBy)
			c.Groups = mergeGroups(c.Groups)
			byId[c.Id] = len(out)
			out = append(out, c)
			continue
		}

		merged := &out[at]
		merged.Faculties = addToSet(merged.Faculties, c.Faculties...)
		merged.Programs = addToSet(merged.Programs, c.Programs...)
		merged.Typologies = addToSet(merged.Typologies, c.Typologies...)
		merged.AlternativeNames = addToSet(merged.AlternativeNames, c.AlternativeNames...)
		merged.Groups = mergeGroups(append(merged.Groups, c.Groups...))
		if merged.Credits == 0 {
			merged.Credits = c.Credits
		}
		if merged.ScrapedAt.IsZero() {
			merged.ScrapedAt = c.ScrapedAt
		}
	}

	for i := range out {
		out[i].refreshAggregates()
	}
	return out
}

// correctFreeElective fixes records discovered through the free-elective
// path when no concrete program was resolved for them: the faculty and
// program they arrive under are search artifacts, not the course's
// home. The owning faculty is reverse-resolved from the first program
// token a group reported, and OVERWRITES the located values, it does
// not join them.
func correctFreeElective(c *Course, resolvedProgram string) {
	if resolvedProgram != "" {
		return
	}
	found := false
	for _, t := range c.Typologies {
		if t == string(catalog.TypologyFreeElective) {
			found = true
			break
		}
	}
	if !found {
		return
	}

	for _, g := range c.Groups {
		faculty, program, ok := catalog.FacultyForProgramToken(c.Place, g.Program)
		if !ok {
			continue
		}
		c.Faculties = []string{faculty}
		c.Programs = []string{program}
		return
	}
}
