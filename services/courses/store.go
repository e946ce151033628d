package courses

import (
	"context"
	"fmt"
	"time"

	"courseatlas-backend/lib/catalog"
	"courseatlas-backend/lib/docstore"
	"courseatlas-backend/lib/hashutil"
)

func coursePath(id uint64) string {
	return fmt.Sprintf("courses/%d", id)
}

func groupPath(courseId uint64, g Group) string {
	return fmt.Sprintf(
		"courses/%d/groups/%d",
		courseId,
		hashutil.Hash(g.Name, g.PeriodEnd.Format(time.RFC3339), g.Program),
	)
}

func teacherPath(name string) string {
	return fmt.Sprintf("teachers/%d", TeacherID(name))
}

// encodeCourse serializes a reconciled course. Set fields go through
// arrayUnion so concurrent scrape tasks can only ever grow them; groups
// and aggregates are overwritten since Reconcile already decided they
// should change.
func encodeCourse(c Course) docstore.Document {
	doc := docstore.Document{
		"id":               fmt.Sprintf("%d", c.Id),
		"code":             c.Code,
		"name":             c.Name,
		"alternativeNames": docstore.ArrayUnion(anySlice(c.AlternativeNames)...),
		"credits":          c.Credits,
		"level":            string(c.Level),
		"place":            string(c.Place),
		"faculties":        docstore.ArrayUnion(anySlice(c.Faculties)...),
		"programs":         docstore.ArrayUnion(anySlice(c.Programs)...),
		"typologies":       docstore.ArrayUnion(anySlice(c.Typologies)...),
		"groupCount":       c.GroupCount,
		"spotsCount":       c.SpotsCount,
		"groups":           encodeGroups(c.Groups),
		"updatedAt":        c.UpdatedAt.Format(time.RFC3339),
	}
	if !c.ScrapedAt.IsZero() {
		doc["scrapedAt"] = c.ScrapedAt.Format(time.RFC3339)
	}
	if c.ScrapedWith != nil {
		doc["scrapedWith"] = map[string]any{
			"level":    string(c.ScrapedWith.Level),
			"place":    string(c.ScrapedWith.Place),
			"faculty":  c.ScrapedWith.Faculty,
			"program":  c.ScrapedWith.Program,
			"typology": string(c.ScrapedWith.Typology),
		}
	}
	return doc
}

func encodeGroups(groups []Group) []any {
	out := make([]any, 0, len(groups))
	for _, g := range groups {
		schedule := make([]any, len(g.Schedule))
		for i, slot := range g.Schedule {
			schedule[i] = slot
		}
		entry := map[string]any{
			"name":           g.Name,
			"activity":       g.Activity,
			"spots":          g.Spots,
			"availableSpots": g.AvailableSpots,
			"teachers":       anySlice(g.Teachers),
			"classrooms":     anySlice(g.Classrooms),
			"schedule":       schedule,
			"program":        g.Program,
		}
		if !g.PeriodStart.IsZero() {
			entry["periodStartAt"] = g.PeriodStart.Format(time.RFC3339)
		}
		if !g.PeriodEnd.IsZero() {
			entry["periodEndAt"] = g.PeriodEnd.Format(time.RFC3339)
		}
		out = append(out, entry)
	}
	return out
}

func decodeCourse(doc docstore.Document) Course {
	c := Course{
		Id:               CourseID(docstore.String(doc, "code")),
		Code:             docstore.String(doc, "code"),
		Name:             docstore.String(doc, "name"),
		AlternativeNames: docstore.Strings(doc, "alternativeNames"),
		Credits:          int(docstore.Int(doc, "credits")),
		Level:            catalog.Level(docstore.String(doc, "level")),
		Place:            catalog.Place(docstore.String(doc, "place")),
		Faculties:        docstore.Strings(doc, "faculties"),
		Programs:         docstore.Strings(doc, "programs"),
		Typologies:       docstore.Strings(doc, "typologies"),
		GroupCount:       int(docstore.Int(doc, "groupCount")),
		SpotsCount:       int(docstore.Int(doc, "spotsCount")),
		ScrapedAt:        decodeTime(doc, "scrapedAt"),
		UpdatedAt:        decodeTime(doc, "updatedAt"),
	}

	if raw, ok := doc["scrapedWith"].(map[string]any); ok {
		sw := docstore.Document(raw)
		c.ScrapedWith = &ScrapedWith{
			Level:    catalog.Level(docstore.String(sw, "level")),
			Place:    catalog.Place(docstore.String(sw, "place")),
			Faculty:  docstore.String(sw, "faculty"),
			Program:  docstore.String(sw, "program"),
			Typology: catalog.Typology(docstore.String(sw, "typology")),
		}
	}

	if raw, ok := doc["groups"].([]any); ok {
		for _, entry := range raw {
			fields, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			c.Groups = append(c.Groups, decodeGroup(docstore.Document(fields)))
		}
	}
	return c
}

func decodeGroup(doc docstore.Document) Group {
	g := Group{
		Name:           docstore.String(doc, "name"),
		Activity:       docstore.String(doc, "activity"),
		Spots:          int(docstore.Int(doc, "spots")),
		AvailableSpots: int(docstore.Int(doc, "availableSpots")),
		Teachers:       docstore.Strings(doc, "teachers"),
		Classrooms:     docstore.Strings(doc, "classrooms"),
		Program:        docstore.String(doc, "program"),
		PeriodStart:    decodeTime(doc, "periodStartAt"),
		PeriodEnd:      decodeTime(doc, "periodEndAt"),
	}
	for i, slot := range docstore.Strings(doc, "schedule") {
		if i >= len(g.Schedule) {
			break
		}
		g.Schedule[i] = slot
	}
	return g
}

func decodeTime(doc docstore.Document, key string) time.Time {
	raw := docstore.String(doc, key)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func anySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Load reads a stored course by its code. Returns nil when unknown.
func Load(ctx context.Context, store docstore.Store, code string) (*Course, error) {
	return loadCourse(ctx, store, CourseID(code))
}

// LoadTeacher reads a teacher's back-reference index entry. Returns nil
// when the teacher has never been indexed.
func LoadTeacher(ctx context.Context, store docstore.Store, name string) (*Teacher, error) {
	doc, err := store.Get(ctx, teacherPath(name))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return &Teacher{
		Name:    docstore.String(doc, "name"),
		Courses: docstore.Strings(doc, "courses"),
	}, nil
}

func loadCourse(ctx context.Context, store docstore.Store, id uint64) (*Course, error) {
	doc, err := store.Get(ctx, coursePath(id))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	course := decodeCourse(doc)
	return &course, nil
}
