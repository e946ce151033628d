package apiv2

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"courseatlas-backend/lib/catalog"
	"courseatlas-backend/lib/scrapers/sia"

	"github.com/stretchr/testify/require"
)

func newFakeRegistry(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/buscador/rest/facultades", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1102", r.URL.Query().Get("sede"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]FacultyRef{
			{Id: "f-9", Codigo: "2", Nombre: "FACULTAD DE CIENCIAS"},
			{Id: "f-12", Codigo: "4", Nombre: "FACULTAD DE INGENIERÍA"},
		})
	})

	mux.HandleFunc("/buscador/rest/planes", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "f-12", r.URL.Query().Get("facultad"))
		require.Equal(t, "PRE", r.URL.Query().Get("nivel"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]ProgramRef{
			{Id: "p-40", Codigo: "2879", Nombre: "INGENIERÍA DE SISTEMAS Y COMPUTACIÓN"},
			{Id: "p-41", Codigo: "2933", Nombre: "CIENCIAS DE LA COMPUTACIÓN"},
		})
	})

	mux.HandleFunc("/buscador/rest/cursos/plan/p-41", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]Row{
			{Id: "c-1", Codigo: "2015181", Nombre: "ALGORITMOS"},
			{Id: "c-2", Codigo: "2016375", Nombre: "TEORÍA DE LA COMPUTACIÓN"},
		})
	})

	mux.HandleFunc("/buscador/rest/cursos/codigo/2015181", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]Row{{Id: "c-1", Codigo: "2015181", Nombre: "ALGORITMOS"}})
	})

	return httptest.NewServer(mux)
}

func TestFetchRowsByPlan(t *testing.T) {
	server := newFakeRegistry(t)
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	rows, err := client.FetchRows(context.Background(), sia.Filter{
		Level:   catalog.LevelUndergraduate,
		Place:   catalog.PlaceBogota,
		Faculty: "INGENIERÍA",
		Program: "2933 CIENCIAS DE LA COMPUTACIÓN",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "2015181", rows[0].Codigo)
}

func TestFetchRowsByCode(t *testing.T) {
	server := newFakeRegistry(t)
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	rows, err := client.FetchRows(context.Background(), sia.Filter{Code: "2015181"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "ALGORITMOS", rows[0].Nombre)
}

func TestFetchRowsNameFilter(t *testing.T) {
	server := newFakeRegistry(t)
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	// accentless term must still match the accented row
	rows, err := client.FetchRows(context.Background(), sia.Filter{
		Level:   catalog.LevelUndergraduate,
		Place:   catalog.PlaceBogota,
		Faculty: "INGENIERÍA",
		Program: "2933 CIENCIAS DE LA COMPUTACIÓN",
		Name:    "teoria",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "2016375", rows[0].Codigo)
}

func TestFetchRowsUnknownPlace(t *testing.T) {
	client := NewClient(ClientOptions{BaseURL: "http://registry.invalid"})
	_, err := client.FetchRows(context.Background(), sia.Filter{
		Level: catalog.LevelUndergraduate,
		Place: catalog.Place("SEDE AMAZONIA"),
	})
	var resErr sia.ResolutionFailedError
	require.ErrorAs(t, err, &resErr)
	require.Equal(t, "place", resErr.What)
}

func TestFetchRowsUnknownProgram(t *testing.T) {
	server := newFakeRegistry(t)
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	_, err := client.FetchRows(context.Background(), sia.Filter{
		Level:   catalog.LevelUndergraduate,
		Place:   catalog.PlaceBogota,
		Faculty: "INGENIERÍA",
		Program: "9999 PLAN INEXISTENTE",
	})
	var resErr sia.ResolutionFailedError
	require.ErrorAs(t, err, &resErr)
	require.Equal(t, "program", resErr.What)
}

func TestFetchRowsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	_, err := client.FetchRows(context.Background(), sia.Filter{
		Level: catalog.LevelUndergraduate,
		Place: catalog.PlaceBogota,
	})
	require.ErrorIs(t, err, sia.ErrUpstreamUnreachable)
}
