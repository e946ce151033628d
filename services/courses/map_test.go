package courses

import (
	"testing"
	"time"

	"courseatlas-backend/lib/catalog"
	"courseatlas-backend/lib/scrapers/sia"
	"courseatlas-backend/lib/scrapers/sia/apiv1"
	"courseatlas-backend/lib/scrapers/sia/apiv2"
	"courseatlas-backend/lib/scrapers/sia/form"
	"courseatlas-backend/lib/timezone"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestMapForm(t *testing.T) {
	filter := sia.Filter{
		Level:    catalog.LevelUndergraduate,
		Place:    catalog.PlaceBogota,
		Faculty:  "INGENIERÍA",
		Program:  "2879 INGENIERÍA DE SISTEMAS Y COMPUTACIÓN",
		Typology: catalog.TypologyDisciplinary,
	}

	group := form.GroupRow{
		Name:        "(1) Grupo 1",
		Activity:    "CLASE TEORICA",
		Spots:       25,
		Teachers:    []string{"JANE DOE"},
		PeriodStart: "02/02/2026",
		PeriodEnd:   "12/06/2026",
	}
	group.Schedule[0] = "07:00|09:00"

	scrapedAt := timezone.Now()
	courses, errs := MapForm([]form.Row{{
		Code:     "2015181",
		Name:     "MATEMÁTICAS DISCRETAS",
		Credits:  3,
		Typology: "DISCIPLINAR OBLIGATORIA",
		Groups:   []form.GroupRow{group},
	}}, filter, scrapedAt)

	require.Empty(t, errs)
	require.Len(t, courses, 1)
	c := courses[0]
	require.Equal(t, CourseID("2015181"), c.Id)
	require.Equal(t, "MATEMÁTICAS DISCRETAS", c.Name)
	require.Contains(t, c.AlternativeNames, "MATEMÁTICAS DISCRETAS")
	require.Equal(t, []string{"INGENIERÍA"}, c.Faculties)
	require.Equal(t, []string{"2879 INGENIERÍA DE SISTEMAS Y COMPUTACIÓN"}, c.Programs)
	require.Equal(t, []string{string(catalog.TypologyDisciplinary)}, c.Typologies)
	require.Equal(t, scrapedAt, c.ScrapedAt)
	require.NotNil(t, c.ScrapedWith)
	require.Empty(t, cmp.Diff(&ScrapedWith{
		Level:    catalog.LevelUndergraduate,
		Place:    catalog.PlaceBogota,
		Faculty:  "INGENIERÍA",
		Program:  "2879 INGENIERÍA DE SISTEMAS Y COMPUTACIÓN",
		Typology: catalog.TypologyDisciplinary,
	}, c.ScrapedWith))

	require.Len(t, c.Groups, 1)
	g := c.Groups[0]
	require.Equal(t, time.Date(2026, 6, 12, 0, 0, 0, 0, timezone.Location), g.PeriodEnd)
	require.Equal(t, "2879 INGENIERÍA DE SISTEMAS Y COMPUTACIÓN", g.Program)
	require.Equal(t, "07:00|09:00", g.Schedule[0])
}

func TestMapFormCollectsRowErrors(t *testing.T) {
	courses, errs := MapForm([]form.Row{
		{Code: "", Name: "SIN CÓDIGO"},
		{Code: "2015181", Name: "MATEMÁTICAS DISCRETAS", Groups: []form.GroupRow{
			{Name: "(1) Grupo 1", PeriodEnd: "no es fecha"},
		}},
	}, sia.Filter{Place: catalog.PlaceBogota}, timezone.Now())

	// partial success: the bad row is dropped, the bad date is
	// collected, the rest survives
	require.Len(t, courses, 1)
	require.Len(t, errs, 2)
	require.True(t, courses[0].Groups[0].PeriodEnd.IsZero())
}

func TestMapFormCorrectsFreeElective(t *testing.T) {
	filter := sia.Filter{
		Level:    catalog.LevelUndergraduate,
		Place:    catalog.PlaceBogota,
		Faculty:  "SEDE BOGOTÁ",
		Typology: catalog.TypologyFreeElective,
	}

	courses, errs := MapForm([]form.Row{{
		Code:     "2015181",
		Name:     "MATEMÁTICAS DISCRETAS",
		Typology: "LIBRE ELECCIÓN",
		Groups: []form.GroupRow{
			{Name: "(1) Grupo 1", Program: "2933 CIENCIAS DE LA COMPUTACIÓN"},
		},
	}}, filter, timezone.Now())

	require.Empty(t, errs)
	require.Len(t, courses, 1)
	// the locating faculty is replaced by the program's home faculty
	require.Contains(t, courses[0].Faculties, "INGENIERÍA")
	require.Equal(t, []string{"2933 CIENCIAS DE LA COMPUTACIÓN"}, courses[0].Programs)
}

func TestMapAPIV1MergesFreeElectiveDuplicate(t *testing.T) {
	rows := []apiv1.Row{
		{
			Codigo:    "2015181",
			Nombre:    "MATEMÁTICAS DISCRETAS",
			Creditos:  3,
			Nivel:     "PREGRADO",
			Sede:      "BOGOTÁ",
			Facultad:  "INGENIERÍA",
			Plan:      "2933 CIENCIAS DE LA COMPUTACIÓN",
			Tipologia: "DISCIPLINAR OBLIGATORIA",
			Grupos: []apiv1.GroupRow{{
				Nombre:      "(1) Grupo 1",
				Cupos:       25,
				Docentes:    []string{"JANE DOE"},
				Horario:     map[string]string{"LUNES": "07:00|09:00"},
				FechaInicio: "02/02/2026",
				FechaFin:    "12/06/2026",
				Plan:        "2933 CIENCIAS DE LA COMPUTACIÓN",
			}},
		},
		{
			Codigo:    "2015181",
			Nombre:    "MATEMÁTICAS DISCRETAS",
			Nivel:     "PREGRADO",
			Sede:      "BOGOTÁ",
			Facultad:  "SEDE BOGOTÁ",
			Tipologia: "LIBRE ELECCIÓN",
			Grupos: []apiv1.GroupRow{{
				Nombre:          "(2) Grupo 2",
				PlanesAsociados: "*** Plan: 2933 CIENCIAS DE LA COMPUTACIÓN",
			}},
		},
	}

	courses, errs := MapAPIV1(rows, sia.Filter{Code: "2015181"})
	require.Empty(t, errs)
	require.Len(t, courses, 1)

	c := courses[0]
	require.Equal(t, "2015181", c.Code)
	require.Contains(t, c.Programs, "2933 CIENCIAS DE LA COMPUTACIÓN")
	require.Contains(t, c.Faculties, "INGENIERÍA")
	require.Contains(t, c.Typologies, string(catalog.TypologyFreeElective))
	require.Len(t, c.Groups, 2)
}

func TestMapAPIV1UnsupportedScheduleDay(t *testing.T) {
	courses, errs := MapAPIV1([]apiv1.Row{{
		Codigo: "2015181",
		Nombre: "MATEMÁTICAS DISCRETAS",
		Grupos: []apiv1.GroupRow{{
			Nombre:  "(1) Grupo 1",
			Horario: map[string]string{"FERIADO": "07:00|09:00"},
		}},
	}}, sia.Filter{Place: catalog.PlaceBogota})

	require.Len(t, errs, 1)
	require.Len(t, courses, 1)
}

func TestMapAPIV2(t *testing.T) {
	filter := sia.Filter{
		Level:   catalog.LevelUndergraduate,
		Place:   catalog.PlaceBogota,
		Faculty: "INGENIERÍA",
		Program: "2933 CIENCIAS DE LA COMPUTACIÓN",
	}

	courses, errs := MapAPIV2([]apiv2.Row{{
		Codigo:    "2015181",
		Nombre:    "MATEMÁTICAS DISCRETAS",
		Creditos:  3,
		Tipologia: "DISCIPLINAR OBLIGATORIA",
		Grupos: []apiv2.GroupRow{{
			Nombre:     "(1) Grupo 1",
			Cupos:      25,
			Profesores: []apiv2.PersonRef{{Nombre: "JANE DOE"}},
			Espacios:   []string{"AULA 404-201"},
			Horarios: []apiv2.ExpandedSlot{
				{Dia: "MIÉRCOLES", HoraInicio: "10:00", HoraFin: "12:00"},
			},
			FechaInicio: "02/02/2026",
			FechaFin:    "12/06/2026",
		}},
	}}, filter)

	require.Empty(t, errs)
	require.Len(t, courses, 1)
	c := courses[0]
	require.Equal(t, []string{"INGENIERÍA"}, c.Faculties)
	require.Len(t, c.Groups, 1)
	require.Equal(t, []string{"JANE DOE"}, c.Groups[0].Teachers)
	require.Equal(t, "10:00|12:00", c.Groups[0].Schedule[2])
	require.Equal(t, "2933 CIENCIAS DE LA COMPUTACIÓN", c.Groups[0].Program)
}
