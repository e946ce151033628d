package courses

import (
	"testing"
	"time"

	"courseatlas-backend/lib/catalog"

	"github.com/stretchr/testify/require"
)

func TestMergeGroupsUnionsRedundantRows(t *testing.T) {
	a := Group{Name: "(1) Grupo 1", Teachers: []string{"A"}, Classrooms: []string{"101"}}
	a.Schedule[0] = "07:00|09:00"
	b := Group{Name: "(1) Grupo 1", Teachers: []string{"B"}, Classrooms: []string{"102"}}
	b.Schedule[2] = "10:00|12:00"

	merged := mergeGroups([]Group{a, b})
	require.Len(t, merged, 1)
	require.ElementsMatch(t, []string{"A", "B"}, merged[0].Teachers)
	require.ElementsMatch(t, []string{"101", "102"}, merged[0].Classrooms)
	require.Equal(t, "07:00|09:00", merged[0].Schedule[0])
	require.Equal(t, "10:00|12:00", merged[0].Schedule[2])
}

func TestMergeGroupsFirstSlotWins(t *testing.T) {
	a := Group{Name: "(1) Grupo 1"}
	a.Schedule[0] = "07:00|09:00"
	b := Group{Name: "(1) Grupo 1"}
	b.Schedule[0] = "14:00|16:00"

	merged := mergeGroups([]Group{a, b})
	require.Len(t, merged, 1)
	require.Equal(t, "07:00|09:00", merged[0].Schedule[0])
}

func TestMergeGroupsKeepsDistinctGroups(t *testing.T) {
	base := time.Date(2026, 6, 12, 0, 0, 0, 0, time.UTC)

	merged := mergeGroups([]Group{
		{Name: "(1) Grupo 1", PeriodEnd: base},
		{Name: "(1) Grupo 1", PeriodEnd: base.AddDate(0, 1, 0)},
		{Name: "(1) Grupo 1", PeriodEnd: base, Program: "2933 CIENCIAS DE LA COMPUTACIÓN"},
	})
	require.Len(t, merged, 3)
}

func TestDedupeCoursesMergesById(t *testing.T) {
	a := Course{
		Id:        CourseID("2015181"),
		Code:      "2015181",
		Faculties: []string{"CIENCIAS"},
		Programs:  []string{"2933 CIENCIAS DE LA COMPUTACIÓN"},
	}
	b := Course{
		Id:         CourseID("2015181"),
		Code:       "2015181",
		Faculties:  []string{"INGENIERÍA"},
		Programs:   []string{"2879 INGENIERÍA DE SISTEMAS Y COMPUTACIÓN"},
		Typologies: []string{string(catalog.TypologyDisciplinary)},
	}

	out := dedupeCourses([]Course{a, b}, "MEDICINA")
	require.Len(t, out, 1)
	require.ElementsMatch(t, []string{"CIENCIAS", "INGENIERÍA", "MEDICINA"}, out[0].Faculties)
	require.ElementsMatch(
		t,
		[]string{
			"2933 CIENCIAS DE LA COMPUTACIÓN",
			"2879 INGENIERÍA DE SISTEMAS Y COMPUTACIÓN",
		},
		out[0].Programs,
	)
}

func TestDedupeCoursesRefreshesAggregates(t *testing.T) {
	out := dedupeCourses([]Course{{
		Id:   CourseID("2015181"),
		Code: "2015181",
		Groups: []Group{
			{Name: "(1) Grupo 1", Spots: 25},
			{Name: "(2) Grupo 2", Spots: 30},
		},
	}}, "")
	require.Len(t, out, 1)
	require.Equal(t, 2, out[0].GroupCount)
	require.Equal(t, 55, out[0].SpotsCount)
}
