package courses

import (
	"fmt"
	"time"

	"courseatlas-backend/lib/catalog"
	"courseatlas-backend/lib/scrapers/sia"
	"courseatlas-backend/lib/scrapers/sia/apiv1"
	"courseatlas-backend/lib/scrapers/sia/apiv2"
	"courseatlas-backend/lib/scrapers/sia/form"
	"courseatlas-backend/lib/timezone"
)

// The mapping functions turn one source's raw rows into canonical
// courses. Malformed cells (dates, schedule days) are collected per row
// instead of failing the batch; rows without a course code are dropped
// before they can be persisted.

// MapForm maps rows scraped off the legacy form's results table.
func MapForm(rows []form.Row, filter sia.Filter, scrapedAt time.Time) ([]Course, []error) {
	var courses []Course
	var errs []error

	for _, row := range rows {
		if row.Code == "" {
			errs = append(errs, fmt.Errorf("dropping form row %q: no course code", row.Name))
			continue
		}

		course := Course{
			Id:               CourseID(row.Code),
			Code:             row.Code,
			Name:             row.Name,
			AlternativeNames: addToSet(nil, row.Name),
			Credits:          row.Credits,
			Level:            filter.Level,
			Place:            filter.Place,
			Faculties:        addToSet(nil, filter.Faculty),
			Programs:         addToSet(nil, filter.Program),
			ScrapedWith: &ScrapedWith{
				Level:    filter.Level,
				Place:    filter.Place,
				Faculty:  filter.Faculty,
				Program:  filter.Program,
				Typology: filter.Typology,
			},
		}
		if t, ok := catalog.ParseTypology(row.Typology); ok {
			course.Typologies = addToSet(nil, string(t))
		} else if row.Typology != "" {
			course.Typologies = addToSet(nil, row.Typology)
		}

		for _, raw := range row.Groups {
			group, groupErrs := mapFormGroup(row.Code, raw)
			errs = append(errs, groupErrs...)
			if group.Program == "" {
				group.Program = filter.Program
			}
			course.Programs = addToSet(course.Programs, group.Program)
			course.Groups = append(course.Groups, group)
		}
		if len(course.Groups) > 0 {
			course.ScrapedAt = scrapedAt
		}

		correctFreeElective(&course, filter.Program)
		courses = append(courses, course)
	}

	return dedupeCourses(courses, filter.Faculty), errs
}

func mapFormGroup(courseCode string, raw form.GroupRow) (Group, []error) {
	group := Group{
		Name:           raw.Name,
		Activity:       raw.Activity,
		Spots:          raw.Spots,
		AvailableSpots: raw.AvailableSpots,
		Teachers:       addToSet(nil, raw.Teachers...),
		Classrooms:     addToSet(nil, raw.Classrooms...),
		Schedule:       raw.Schedule,
		Program:        raw.Program,
	}

	var errs []error
	group.PeriodStart, group.PeriodEnd = parsePeriod(
		courseCode, raw.Name, raw.PeriodStart, raw.PeriodEnd, &errs,
	)
	return group, errs
}

// MapAPIV1 maps rows from the legacy JSON endpoint. The endpoint labels
// level/place/faculty with free text, so each is resolved against the
// catalog and falls back to the filter's value when unparseable.
func MapAPIV1(rows []apiv1.Row, filter sia.Filter) ([]Course, []error) {
	var courses []Course
	var errs []error
	now := timezone.Now()

	for _, row := range rows {
		if row.Codigo == "" {
			errs = append(errs, fmt.Errorf("dropping row %q: no course code", row.Nombre))
			continue
		}

		level := filter.Level
		if l, ok := catalog.ParseLevel(row.Nivel); ok {
			level = l
		}
		place := filter.Place
		if p, ok := catalog.ParsePlace(row.Sede); ok {
			place = p
		}
		faculty := row.Facultad
		if resolved, ok := catalog.ResolveFaculty(place, row.Facultad); ok {
			faculty = resolved
		}

		course := Course{
			Id:               CourseID(row.Codigo),
			Code:             row.Codigo,
			Name:             row.Nombre,
			AlternativeNames: addToSet(nil, row.Nombre),
			Credits:          row.Creditos,
			Level:            level,
			Place:            place,
			Faculties:        addToSet(nil, faculty),
			Programs:         addToSet(nil, row.Plan),
			ScrapedWith: &ScrapedWith{
				Level:    level,
				Place:    place,
				Faculty:  faculty,
				Program:  row.Plan,
				Typology: filter.Typology,
			},
		}
		if t, ok := catalog.ParseTypology(row.Tipologia); ok {
			course.Typologies = addToSet(nil, string(t))
		} else if row.Tipologia != "" {
			course.Typologies = addToSet(nil, row.Tipologia)
		}

		for _, raw := range row.Grupos {
			group, groupErrs := mapAPIV1Group(row.Codigo, raw)
			errs = append(errs, groupErrs...)
			course.Programs = addToSet(course.Programs, group.Program)
			course.Programs = addToSet(course.Programs, raw.AssociatedPrograms()...)
			course.Groups = append(course.Groups, group)
		}
		if len(course.Groups) > 0 {
			course.ScrapedAt = now
		}

		correctFreeElective(&course, firstNonEmpty(row.Plan, filter.Program))
		courses = append(courses, course)
	}

	return dedupeCourses(courses, filter.Faculty), errs
}

func mapAPIV1Group(courseCode string, raw apiv1.GroupRow) (Group, []error) {
	group := Group{
		Name:           raw.Nombre,
		Activity:       raw.Actividad,
		Spots:          raw.Cupos,
		AvailableSpots: raw.CuposDisponibles,
		Teachers:       addToSet(nil, raw.Docentes...),
		Classrooms:     addToSet(nil, raw.Aulas...),
		Program:        raw.Plan,
	}
	if group.Program == "" {
		if programs := raw.AssociatedPrograms(); len(programs) > 0 {
			group.Program = programs[0]
		}
	}

	var errs []error
	for day, slot := range raw.Horario {
		i, ok := form.WeekdayIndex(day)
		if !ok {
			errs = append(errs, fmt.Errorf(
				"course %s group %q: unsupported schedule day %q", courseCode, raw.Nombre, day,
			))
			continue
		}
		group.Schedule[i] = slot
	}
	group.PeriodStart, group.PeriodEnd = parsePeriod(
		courseCode, raw.Nombre, raw.FechaInicio, raw.FechaFin, &errs,
	)
	return group, errs
}

// MapAPIV2 maps rows from the current JSON endpoint. Level and place
// come from the filter: this source was already resolved against its
// own vocabulary before the fetch.
func MapAPIV2(rows []apiv2.Row, filter sia.Filter) ([]Course, []error) {
	var courses []Course
	var errs []error
	now := timezone.Now()

	for _, row := range rows {
		if row.Codigo == "" {
			errs = append(errs, fmt.Errorf("dropping row %q: no course code", row.Nombre))
			continue
		}

		faculty := firstNonEmpty(row.Facultad, filter.Faculty)
		if resolved, ok := catalog.ResolveFaculty(filter.Place, faculty); ok {
			faculty = resolved
		}
		program := firstNonEmpty(row.Plan, filter.Program)

		course := Course{
			Id:               CourseID(row.Codigo),
			Code:             row.Codigo,
			Name:             row.Nombre,
			AlternativeNames: addToSet(nil, row.Nombre),
			Credits:          row.Creditos,
			Level:            filter.Level,
			Place:            filter.Place,
			Faculties:        addToSet(nil, faculty),
			Programs:         addToSet(nil, program),
			ScrapedWith: &ScrapedWith{
				Level:    filter.Level,
				Place:    filter.Place,
				Faculty:  faculty,
				Program:  program,
				Typology: filter.Typology,
			},
		}
		if t, ok := catalog.ParseTypology(row.Tipologia); ok {
			course.Typologies = addToSet(nil, string(t))
		} else if row.Tipologia != "" {
			course.Typologies = addToSet(nil, row.Tipologia)
		}

		for _, raw := range row.Grupos {
			group, groupErrs := mapAPIV2Group(row.Codigo, raw)
			errs = append(errs, groupErrs...)
			if group.Program == "" {
				group.Program = program
			}
			course.Programs = addToSet(course.Programs, group.Program)
			course.Groups = append(course.Groups, group)
		}
		if len(course.Groups) > 0 {
			course.ScrapedAt = now
		}

		correctFreeElective(&course, program)
		courses = append(courses, course)
	}

	return dedupeCourses(courses, filter.Faculty), errs
}

func mapAPIV2Group(courseCode string, raw apiv2.GroupRow) (Group, []error) {
	group := Group{
		Name:           raw.Nombre,
		Activity:       raw.Actividad,
		Spots:          raw.Cupos,
		AvailableSpots: raw.CuposDisponibles,
		Classrooms:     addToSet(nil, raw.Espacios...),
		Program:        raw.Plan,
	}
	for _, p := range raw.Profesores {
		group.Teachers = addToSet(group.Teachers, p.Nombre)
	}

	var errs []error
	for _, slot := range raw.Horarios {
		i, ok := form.WeekdayIndex(slot.Dia)
		if !ok {
			errs = append(errs, fmt.Errorf(
				"course %s group %q: unsupported schedule day %q", courseCode, raw.Nombre, slot.Dia,
			))
			continue
		}
		if group.Schedule[i] == "" {
			group.Schedule[i] = slot.HoraInicio + "|" + slot.HoraFin
		}
	}
	group.PeriodStart, group.PeriodEnd = parsePeriod(
		courseCode, raw.Nombre, raw.FechaInicio, raw.FechaFin, &errs,
	)
	return group, errs
}

func parsePeriod(courseCode, groupName, start, end string, errs *[]error) (time.Time, time.Time) {
	var startAt, endAt time.Time
	if start != "" {
		t, err := timezone.ParseRegistryDate(start)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("course %s group %q: %w", courseCode, groupName, err))
		} else {
			startAt = t
		}
	}
	if end != "" {
		t, err := timezone.ParseRegistryDate(end)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("course %s group %q: %w", courseCode, groupName, err))
		} else {
			endAt = t
		}
	}
	return startAt, endAt
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
