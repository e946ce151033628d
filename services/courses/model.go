// Package courses maps the three registry sources onto one canonical
// course/group model, deduplicates what they return, and decides per
// fetch whether stored data is fresh enough to skip persisting again.
package courses

import (
	"time"

	"courseatlas-backend/lib/catalog"
	"courseatlas-backend/lib/hashutil"
	"courseatlas-backend/lib/textutil"
)

// ScrapedWith is the exact search tuple that last located a course in
// the legacy form. Without it a group re-scrape cannot re-enter the
// form, so it is persisted alongside the course.
type ScrapedWith struct {
	Level    catalog.Level
	Place    catalog.Place
	Faculty  string
	Program  string
	Typology catalog.Typology
}

// Course is the canonical record. Faculties, programs, typologies and
// alternative names are sets: the same course code legitimately shows
// up under several of each depending on the search path that surfaced
// it. Slice order is insertion order and carries no meaning.
type Course struct {
	Id               uint64
	Code             string
	Name             string
	AlternativeNames []string
	Credits          int
	Level            catalog.Level
	Place            catalog.Place
	Faculties        []string
	Programs         []string
	Typologies       []string
	GroupCount       int
	SpotsCount       int
	Groups           []Group
	// ScrapedAt is the last successful detailed group scrape; zero
	// means groups have never been scraped.
	ScrapedAt   time.Time
	ScrapedWith *ScrapedWith
	UpdatedAt   time.Time
}

// Group is one offering of a course. Name alone is not its identity:
// rows with the same name but different period end or program are
// distinct groups, while same-key rows are redundant renderings that
// get merged.
type Group struct {
	Name           string
	Activity       string
	Spots          int
	AvailableSpots int // upstream does not guarantee <= Spots
	Teachers       []string
	Classrooms     []string
	Schedule       [7]string // monday-first, "HH:MM|HH:MM" per slot
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Program        string
}

// Teacher is the back-reference index entry kept per normalized name:
// a teacher accumulates the codes of every course they were ever seen
// teaching.
type Teacher struct {
	Name    string
	Courses []string
}

// CourseID derives the stable course identifier. Persisted records
// depend on it, so the derivation must never change.
func CourseID(code string) uint64 {
	return hashutil.Hash(code)
}

// TeacherID deduplicates teachers by normalized name.
func TeacherID(name string) uint64 {
	return hashutil.Hash(textutil.NormalizeName(name))
}

func (c *Course) refreshAggregates() {
	c.GroupCount = len(c.Groups)
	c.SpotsCount = 0
	for _, g := range c.Groups {
		c.SpotsCount += g.Spots
	}
}

// addToSet appends the values not already present, preserving insertion
// order.
func addToSet(set []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		found := false
		for _, existing := range set {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			set = append(set, v)
		}
	}
	return set
}

func isSubset(sub, super []string) bool {
	for _, v := range sub {
		found := false
		for _, existing := range super {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
