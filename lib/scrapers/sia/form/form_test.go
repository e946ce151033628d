package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"courseatlas-backend/lib/browser"
	"courseatlas-backend/lib/catalog"
	"courseatlas-backend/lib/scrapers/sia"

	"github.com/stretchr/testify/require"
)

// mockDriver scripts the cascading form: selecting a label installs the
// dependent selects' options, mimicking the registry's async mutation.
type mockDriver struct {
	options    map[string][]browser.Option
	cascade    map[string]map[string][]browser.Option
	resultHTML string

	gotoErr    error
	gotoCalls  int
	closeCalls int
	selected   map[string]string
}

func labels(ls ...string) []browser.Option {
	out := make([]browser.Option, len(ls))
	for i, l := range ls {
		out[i] = browser.Option{Label: l, Value: l}
	}
	return out
}

func newMockDriver() *mockDriver {
	return &mockDriver{
		selected: map[string]string{},
		options: map[string][]browser.Option{
			selLevel: labels("PREGRADO", "POSGRADO"),
		},
		cascade: map[string]map[string][]browser.Option{
			selLevel:   {selPlace: labels("BOGOTÁ", "MEDELLÍN")},
			selPlace:   {selFaculty: labels("INGENIERÍA", "CIENCIAS")},
			selFaculty: {selProgram: labels("2933 CIENCIAS DE LA COMPUTACIÓN")},
			selProgram: {selTypology: labels("DISCIPLINAR OPTATIVA", "LIBRE ELECCIÓN")},
			selLeMode: {
				selLeProgram: labels("2944 COMPONENTE DE LIBRE ELECCIÓN", "2933 CIENCIAS DE LA COMPUTACIÓN"),
				selLePlace:   labels("BOGOTÁ", "MEDELLÍN"),
			},
			selLePlace:   {selLeFaculty: labels("INGENIERÍA")},
			selLeFaculty: {selLeProgram: labels("2944 COMPONENTE DE LIBRE ELECCIÓN")},
		},
	}
}

func (m *mockDriver) Goto(ctx context.Context, url string) error {
	m.gotoCalls++
	return m.gotoErr
}

func (m *mockDriver) Click(ctx context.Context, selector string) error {
	return nil
}

func (m *mockDriver) SelectByLabel(ctx context.Context, selector, label string) error {
	found := false
	for _, o := range m.options[selector] {
		if o.Label == label {
			found = true
			break
		}
	}
	// the typology and le-mode selects are statically populated in the
	// mock the same way the live form pre-renders them
	if selector == selTypology || selector == selLeMode {
		found = true
	}
	if !found {
		return browser.NoMatchingOptionError{Selector: selector, Label: label}
	}

	m.selected[selector] = label
	for dependent, install := range m.cascade[selector] {
		m.options[dependent] = install
	}
	return nil
}

func (m *mockDriver) WaitForSelector(ctx context.Context, selector string) error {
	return nil
}

func (m *mockDriver) Options(ctx context.Context, selector string) ([]browser.Option, error) {
	return m.options[selector], nil
}

func (m *mockDriver) InnerHTML(ctx context.Context, selector string) (string, error) {
	return m.resultHTML, nil
}

func (m *mockDriver) Close() error {
	m.closeCalls++
	return nil
}

func testFilter() sia.Filter {
	return sia.Filter{
		Level:   catalog.LevelUndergraduate,
		Place:   catalog.PlaceBogota,
		Faculty: "INGENIERÍA",
		Program: "2933 CIENCIAS DE LA COMPUTACIÓN",
	}
}

func fastOptions() Options {
	return Options{
		BaseURL:         "http://registry.test/buscador",
		GotoAttempts:    2,
		GotoBaseDelay:   time.Millisecond,
		MutationTimeout: time.Millisecond * 100,
	}
}

const resultFixture = `
<tbody>
	<tr class="curso">
		<td class="codigo">2015181</td>
		<td class="nombre">ESTRUCTURAS DE DATOS</td>
		<td class="creditos">3</td>
		<td class="tipologia">DISCIPLINAR OPTATIVA</td>
		<td><table class="grupos"><tbody>
			<tr>
				<td class="grupo">Grupo 1</td>
				<td class="actividad">CLASE TEORICA</td>
				<td class="cupos">30</td>
				<td class="disponibles">12</td>
				<td class="docente">PEREZ JUAN</td>
				<td class="aula">401-201</td>
				<td class="horario">LUNES 07:00|09:00; MIERCOLES 07:00|09:00</td>
				<td class="periodo">03/02/2025 - 30/05/2025</td>
				<td class="plan">2933 CIENCIAS DE LA COMPUTACIÓN</td>
			</tr>
		</tbody></table></td>
	</tr>
</tbody>`

func TestRunHappyPath(t *testing.T) {
	driver := newMockDriver()
	driver.resultHTML = resultFixture

	nav := NewNavigator(driver, testFilter(), fastOptions())
	rows, errs, err := nav.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Equal(t, StateResultsShown, nav.State())
	require.Equal(t, 1, driver.closeCalls)

	require.Len(t, rows, 1)
	require.Equal(t, "2015181", rows[0].Code)
	require.Equal(t, "ESTRUCTURAS DE DATOS", rows[0].Name)
	require.Equal(t, 3, rows[0].Credits)
	require.Len(t, rows[0].Groups, 1)

	group := rows[0].Groups[0]
	require.Equal(t, "Grupo 1", group.Name)
	require.Equal(t, []string{"PEREZ JUAN"}, group.Teachers)
	require.Equal(t, "07:00|09:00", group.Schedule[0])
	require.Equal(t, "07:00|09:00", group.Schedule[2])
	require.Equal(t, "", group.Schedule[1])
	require.Equal(t, "03/02/2025", group.PeriodStart)
}

func TestRunZeroResults(t *testing.T) {
	driver := newMockDriver()
	driver.resultHTML = "" // registry renders the table with no tbody

	nav := NewNavigator(driver, testFilter(), fastOptions())
	rows, errs, err := nav.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Empty(t, rows)
}

func TestRunUnreachable(t *testing.T) {
	driver := newMockDriver()
	driver.gotoErr = errors.New("response not ok")

	nav := NewNavigator(driver, testFilter(), fastOptions())
	_, _, err := nav.Run(context.Background())
	require.ErrorIs(t, err, sia.ErrUpstreamUnreachable)
	require.Equal(t, 2, driver.gotoCalls)
	require.Equal(t, 1, driver.closeCalls)
}

func TestRunNoMatchingOption(t *testing.T) {
	driver := newMockDriver()
	filter := testFilter()
	filter.Program = "9999 PROGRAMA FANTASMA"

	nav := NewNavigator(driver, filter, fastOptions())
	_, _, err := nav.Run(context.Background())

	var noMatch browser.NoMatchingOptionError
	require.ErrorAs(t, err, &noMatch)
	require.Equal(t, selProgram, noMatch.Selector)
	require.Equal(t, 1, driver.closeCalls)
}

func TestRunMutationTimeout(t *testing.T) {
	driver := newMockDriver()
	// break the cascade: selecting a level never populates the campus
	// select
	delete(driver.cascade, selLevel)

	nav := NewNavigator(driver, testFilter(), fastOptions())
	_, _, err := nav.Run(context.Background())

	var timeout MutationTimeoutError
	require.ErrorAs(t, err, &timeout)
	require.Equal(t, selPlace, timeout.Selector)
	// browser released even though the session errored
	require.Equal(t, 1, driver.closeCalls)
}

func TestRunFreeElectiveByProgram(t *testing.T) {
	driver := newMockDriver()
	driver.resultHTML = resultFixture
	filter := testFilter()
	filter.Typology = catalog.TypologyFreeElective

	nav := NewNavigator(driver, filter, fastOptions())
	rows, _, err := nav.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "2933 CIENCIAS DE LA COMPUTACIÓN", driver.selected[selLeProgram])
}

func TestRunFreeElectiveByFaculty(t *testing.T) {
	driver := newMockDriver()
	driver.resultHTML = resultFixture
	filter := testFilter()
	filter.Typology = catalog.TypologyFreeElective

	opts := fastOptions()
	opts.Mode = SearchModeByFaculty

	nav := NewNavigator(driver, filter, opts)
	rows, _, err := nav.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "BOGOTÁ", driver.selected[selLePlace])
	require.Equal(t, "INGENIERÍA", driver.selected[selLeFaculty])
	require.Equal(t, "2944 COMPONENTE DE LIBRE ELECCIÓN", driver.selected[selLeProgram])
}

func TestParseResultsDedupesByCode(t *testing.T) {
	html := `
	<tbody>
		<tr class="curso">
			<td class="codigo">2015181</td><td class="nombre">A</td>
			<td class="creditos">3</td><td class="tipologia">T</td>
			<td><table class="grupos"><tbody><tr>
				<td class="grupo">Grupo 1</td><td class="cupos">10</td>
			</tr></tbody></table></td>
		</tr>
		<tr class="curso">
			<td class="codigo">2015181</td><td class="nombre">A</td>
			<td class="creditos">3</td><td class="tipologia">T</td>
			<td><table class="grupos"><tbody><tr>
				<td class="grupo">Grupo 2</td><td class="cupos">20</td>
			</tr></tbody></table></td>
		</tr>
	</tbody>`

	rows, errs := ParseResults(html)
	require.Empty(t, errs)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Groups, 2)
}

func TestParseResultsCollectsRowErrors(t *testing.T) {
	html := `
	<tbody>
		<tr class="curso">
			<td class="codigo">2015181</td><td class="nombre">A</td>
			<td class="creditos">3</td><td class="tipologia">T</td>
			<td><table class="grupos"><tbody><tr>
				<td class="grupo">Grupo 1</td>
				<td class="horario">FESTIVO 07:00|09:00; LUNES 10:00|12:00</td>
			</tr></tbody></table></td>
		</tr>
	</tbody>`

	rows, errs := ParseResults(html)
	// partial success: the bad day token is reported, the row survives
	require.Len(t, errs, 1)
	require.Len(t, rows, 1)
	require.Equal(t, "10:00|12:00", rows[0].Groups[0].Schedule[0])
}
