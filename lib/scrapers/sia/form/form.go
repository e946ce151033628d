// Package form drives the registry's cascading select-form with a
// headless browser. The form is strictly ordered: each select only gets
// its options after the previous one fires a change event, with no
// request/response signal available to the caller, so every transition
// selects by label and then waits for the next control to repopulate.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"courseatlas-backend/lib/browser"
	"courseatlas-backend/lib/catalog"
	"courseatlas-backend/lib/scrapers/sia"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/scrapers/sia/form")

// form control selectors. The registry's option VALUES rotate daily but
// these names have been stable for years.
const (
	selLevel    = "select[name=nivel]"
	selPlace    = "select[name=sede]"
	selFaculty  = "select[name=facultad]"
	selProgram  = "select[name=plan]"
	selTypology = "select[name=tipologia]"

	// nested free-elective sub-form
	selLeMode    = "select[name=le_modo]"
	selLePlace   = "select[name=le_sede]"
	selLeFaculty = "select[name=le_facultad]"
	selLeProgram = "select[name=le_plan]"

	selSearch  = "input[name=mostrar]"
	selResults = "table#lista_cursos"
)

// labels of the free-elective search mode radio-select
const (
	leModeByFacultyLabel = "Por facultad"
	leModeByProgramLabel = "Por plan de estudios"
)

// State of the navigation session. States are strictly ordered; each is
// a precondition for the next.
type State int

const (
	StateInit State = iota
	StatePageLoaded
	StateLevelSelected
	StatePlaceSelected
	StateFacultySelected
	StateProgramSelected
	StateTypologySelected
	StateLeSearchModeSelected
	StateLeProgramSelected
	StateResultsShown
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StatePageLoaded:
		return "PAGE_LOADED"
	case StateLevelSelected:
		return "LEVEL_SELECTED"
	case StatePlaceSelected:
		return "PLACE_SELECTED"
	case StateFacultySelected:
		return "FACULTY_SELECTED"
	case StateProgramSelected:
		return "PROGRAM_SELECTED"
	case StateTypologySelected:
		return "TYPOLOGY_SELECTED"
	case StateLeSearchModeSelected:
		return "LE_SEARCH_MODE_SELECTED"
	case StateLeProgramSelected:
		return "LE_PROGRAM_SELECTED"
	case StateResultsShown:
		return "RESULTS_SHOWN"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SearchMode picks the free-elective detour strategy.
type SearchMode string

const (
	// SearchModeByProgram scopes the free-elective program list to the
	// already-chosen program. Default.
	SearchModeByProgram SearchMode = "by-program"
	// SearchModeByFaculty re-selects campus and faculty inside the
	// nested sub-form.
	SearchModeByFaculty SearchMode = "by-faculty"
	// SearchModeByProgramLegacy always uses the fixed per-campus
	// default program.
	SearchModeByProgramLegacy SearchMode = "by-program-legacy"
)

// MutationTimeoutError means a select never repopulated after the
// previous transition. Signals an upstream layout change.
type MutationTimeoutError struct {
	Selector string
}

func (e MutationTimeoutError) Error() string {
	return fmt.Sprintf("select %q never repopulated", e.Selector)
}

type Options struct {
	BaseURL string
	Mode    SearchMode
	// bounded retry for the initial navigation, public proxy egress is
	// unreliable
	GotoAttempts  int
	GotoBaseDelay time.Duration
	// how long to wait for a select to repopulate after the previous
	// change event
	MutationTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Mode:            SearchModeByProgram,
		GotoAttempts:    2,
		GotoBaseDelay:   time.Second * 2,
		MutationTimeout: time.Second * 30,
	}
}

// Navigator walks one scrape session through the form. Strictly
// sequential: one in-flight browser session per navigator.
type Navigator struct {
	driver browser.Driver
	filter sia.Filter
	opts   Options

	state State
}

func NewNavigator(driver browser.Driver, filter sia.Filter, opts Options) *Navigator {
	defaults := DefaultOptions()
	if opts.Mode == "" {
		opts.Mode = defaults.Mode
	}
	if opts.GotoAttempts == 0 {
		opts.GotoAttempts = defaults.GotoAttempts
	}
	if opts.GotoBaseDelay == 0 {
		opts.GotoBaseDelay = defaults.GotoBaseDelay
	}
	if opts.MutationTimeout == 0 {
		opts.MutationTimeout = defaults.MutationTimeout
	}
	return &Navigator{driver: driver, filter: filter, opts: opts, state: StateInit}
}

// State reports the current state, mainly for tests and diagnostics.
func (n *Navigator) State() State {
	return n.state
}

// Run drives the session to RESULTS_SHOWN and extracts the results
// table. The browser is released on every exit path. Row-level parse
// failures come back in the second return value; they never abort the
// batch.
func (n *Navigator) Run(ctx context.Context) ([]Row, []error, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	defer n.driver.Close()

	for n.state != StateResultsShown {
		next, err := n.step(ctx)
		if err != nil {
			if errors.Is(err, sia.ErrUpstreamUnreachable) {
				// expected under proxy churn, not error-worthy
				slog.DebugContext(ctx, "registry unreachable", "state", n.state.String())
			} else {
				slog.ErrorContext(ctx, "form navigation failed",
					"state", n.state.String(), "err", err)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return nil, nil, err
		}
		n.state = next
	}

	html, err := n.driver.InnerHTML(ctx, selResults)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read results table")
		return nil, nil, err
	}
	rows, errs := ParseResults(html)
	return rows, errs, nil
}

// step is the transition function: given the current state it performs
// exactly one transition and returns the next state.
func (n *Navigator) step(ctx context.Context) (State, error) {
	switch n.state {
	case StateInit:
		err := n.gotoWithRetry(ctx)
		if err != nil {
			return n.state, err
		}
		err = n.driver.WaitForSelector(ctx, selLevel)
		if err != nil {
			return n.state, fmt.Errorf("form never rendered: %w", err)
		}
		return StatePageLoaded, nil

	case StatePageLoaded:
		err := n.selectAndAwait(ctx, selLevel, string(n.filter.Level), selPlace)
		if err != nil {
			return n.state, err
		}
		return StateLevelSelected, nil

	case StateLevelSelected:
		err := n.selectAndAwait(ctx, selPlace, string(n.filter.Place), selFaculty)
		if err != nil {
			return n.state, err
		}
		return StatePlaceSelected, nil

	case StatePlaceSelected:
		faculty, ok := catalog.ResolveFaculty(n.filter.Place, n.filter.Faculty)
		if !ok {
			return n.state, sia.ResolutionFailedError{What: "faculty", Label: n.filter.Faculty}
		}
		err := n.selectAndAwait(ctx, selFaculty, faculty, selProgram)
		if err != nil {
			return n.state, err
		}
		return StateFacultySelected, nil

	case StateFacultySelected:
		err := n.selectAndAwait(ctx, selProgram, n.filter.Program, selTypology)
		if err != nil {
			return n.state, err
		}
		return StateProgramSelected, nil

	case StateProgramSelected:
		if n.filter.Typology == "" {
			return n.showResults(ctx)
		}
		err := n.driver.SelectByLabel(ctx, selTypology, string(n.filter.Typology))
		if err != nil {
			return n.state, err
		}
		return StateTypologySelected, nil

	case StateTypologySelected:
		if n.filter.Typology != catalog.TypologyFreeElective {
			return n.showResults(ctx)
		}
		// free electives are not filed under a normal program: the
		// registry opens a nested sub-form for them
		return n.selectLeMode(ctx)

	case StateLeSearchModeSelected:
		return n.selectLeProgram(ctx)

	case StateLeProgramSelected:
		return n.showResults(ctx)
	}

	return n.state, fmt.Errorf("no transition from state %s", n.state)
}

func (n *Navigator) gotoWithRetry(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= n.opts.GotoAttempts; attempt++ {
		err := n.driver.Goto(ctx, n.opts.BaseURL)
		if err == nil {
			return nil
		}
		lastErr = err
		slog.DebugContext(ctx, "registry navigation attempt failed",
			"attempt", attempt, "err", err)

		if attempt == n.opts.GotoAttempts {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * n.opts.GotoBaseDelay):
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", sia.ErrUpstreamUnreachable, ctx.Err())
		}
	}
	return fmt.Errorf("%w: %w", sia.ErrUpstreamUnreachable, lastErr)
}

// selectAndAwait selects a label and waits for the dependent control to
// repopulate. The registry replaces the child options asynchronously,
// so the only signal is the option list changing.
func (n *Navigator) selectAndAwait(ctx context.Context, selector, label, awaiting string) error {
	before, err := n.driver.Options(ctx, awaiting)
	if err != nil {
		return err
	}

	err = n.driver.SelectByLabel(ctx, selector, label)
	if err != nil {
		return err
	}
	return n.awaitRepopulate(ctx, awaiting, before)
}

func (n *Navigator) awaitRepopulate(ctx context.Context, selector string, before []browser.Option) error {
	deadline := time.Now().Add(n.opts.MutationTimeout)
	for {
		if time.Now().After(deadline) {
			return MutationTimeoutError{Selector: selector}
		}

		after, err := n.driver.Options(ctx, selector)
		if err != nil {
			return err
		}
		if len(after) > 0 && !sameOptions(before, after) {
			return nil
		}

		select {
		case <-time.After(time.Millisecond * 250):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func sameOptions(a, b []browser.Option) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Label != b[i].Label {
			return false
		}
	}
	return true
}

func (n *Navigator) selectLeMode(ctx context.Context) (State, error) {
	label := leModeByProgramLabel
	if n.opts.Mode == SearchModeByFaculty {
		label = leModeByFacultyLabel
	}

	err := n.selectAndAwait(ctx, selLeMode, label, n.leProgramSelector())
	if err != nil {
		return n.state, err
	}
	return StateLeSearchModeSelected, nil
}

func (n *Navigator) leProgramSelector() string {
	if n.opts.Mode == SearchModeByFaculty {
		return selLePlace
	}
	return selLeProgram
}

func (n *Navigator) selectLeProgram(ctx context.Context) (State, error) {
	switch n.opts.Mode {
	case SearchModeByFaculty:
		// re-select campus and faculty inside the sub-form, then the
		// fixed per-campus program
		err := n.selectAndAwait(ctx, selLePlace, string(n.filter.Place), selLeFaculty)
		if err != nil {
			return n.state, err
		}
		faculty, ok := catalog.ResolveFaculty(n.filter.Place, n.filter.Faculty)
		if !ok {
			return n.state, sia.ResolutionFailedError{What: "faculty", Label: n.filter.Faculty}
		}
		err = n.selectAndAwait(ctx, selLeFaculty, faculty, selLeProgram)
		if err != nil {
			return n.state, err
		}
		program, ok := catalog.FreeElectiveProgram(n.filter.Place)
		if !ok {
			return n.state, sia.ResolutionFailedError{What: "free elective program", Label: string(n.filter.Place)}
		}
		err = n.driver.SelectByLabel(ctx, selLeProgram, program)
		if err != nil {
			return n.state, err
		}

	case SearchModeByProgramLegacy:
		program, ok := catalog.FreeElectiveProgram(n.filter.Place)
		if !ok {
			return n.state, sia.ResolutionFailedError{What: "free elective program", Label: string(n.filter.Place)}
		}
		err := n.driver.SelectByLabel(ctx, selLeProgram, program)
		if err != nil {
			return n.state, err
		}

	default: // SearchModeByProgram
		program := n.filter.Program
		if program == "" {
			fallback, ok := catalog.FreeElectiveProgram(n.filter.Place)
			if !ok {
				return n.state, sia.ResolutionFailedError{What: "free elective program", Label: string(n.filter.Place)}
			}
			program = fallback
		}
		err := n.driver.SelectByLabel(ctx, selLeProgram, program)
		if err != nil {
			return n.state, err
		}
	}

	return StateLeProgramSelected, nil
}

func (n *Navigator) showResults(ctx context.Context) (State, error) {
	err := n.driver.Click(ctx, selSearch)
	if err != nil {
		return n.state, err
	}
	err = n.driver.WaitForSelector(ctx, selResults)
	if err != nil {
		return n.state, fmt.Errorf("results table never rendered: %w", err)
	}
	return StateResultsShown, nil
}
