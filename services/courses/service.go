package courses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"courseatlas-backend/lib/browser"
	"courseatlas-backend/lib/docstore"
	"courseatlas-backend/lib/proxypool"
	"courseatlas-backend/lib/scrapers/sia"
	"courseatlas-backend/lib/scrapers/sia/apiv1"
	"courseatlas-backend/lib/scrapers/sia/apiv2"
	"courseatlas-backend/lib/scrapers/sia/form"
	"courseatlas-backend/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/courses")

// Source selects which upstream a fetch goes through.
type Source string

const (
	SourceForm  Source = "form"
	SourceAPIV1 Source = "apiv1"
	SourceAPIV2 Source = "apiv2"
)

// ErrMissingCourseData means a stored course lacks the search tuple
// needed to re-enter the legacy form. Fatal for that course's group
// scrape only; siblings are unaffected.
var ErrMissingCourseData = errors.New("course record is missing its form search tuple")

type Options struct {
	// RegistryBaseURL is the legacy form's entrypoint.
	RegistryBaseURL string
	// PingTarget is the cheap URL proxies are raced against before a
	// browser session.
	PingTarget string
	CacheRate  time.Duration
	FormMode   form.SearchMode
	// NewDriver opens a browser session, optionally through a proxy.
	// Injected so tests can run the navigator against a mock.
	NewDriver func(ctx context.Context, proxyAddress string) (browser.Driver, error)
	// indexSync makes the detached group/teacher indexing writes
	// synchronous, for tests only.
	indexSync bool
}

type Service struct {
	store   docstore.Store
	proxies *proxypool.Registry
	apiv1   *apiv1.Client
	apiv2   *apiv2.Client
	opts    Options
}

func NewService(
	store docstore.Store,
	proxies *proxypool.Registry,
	v1 *apiv1.Client,
	v2 *apiv2.Client,
	opts Options,
) *Service {
	if opts.CacheRate == 0 {
		opts.CacheRate = DefaultReconcileOptions().CacheRate
	}
	return &Service{
		store:   store,
		proxies: proxies,
		apiv1:   v1,
		apiv2:   v2,
		opts:    opts,
	}
}

// FetchCourses runs one scrape against the chosen source, reconciles
// every mapped course against storage and returns the merged records.
// An unreachable upstream is an expected steady-state outcome and comes
// back as zero courses, not as an error.
func (s *Service) FetchCourses(ctx context.Context, source Source, filter sia.Filter) ([]Course, error) {
	ctx, span := tracer.Start(ctx, "FetchCourses")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", string(source)),
		attribute.String("code", filter.Code),
		attribute.String("program", filter.Program),
	)

	var mapped []Course
	var rowErrs []error
	var err error

	switch source {
	case SourceForm:
		mapped, rowErrs, err = s.fetchForm(ctx, filter)
	case SourceAPIV1:
		var rows []apiv1.Row
		rows, err = s.apiv1.FetchRows(ctx, filter)
		if err == nil {
			mapped, rowErrs = MapAPIV1(rows, filter)
		}
	case SourceAPIV2:
		var rows []apiv2.Row
		rows, err = s.apiv2.FetchRows(ctx, filter)
		if err == nil {
			mapped, rowErrs = MapAPIV2(rows, filter)
		}
	default:
		err = fmt.Errorf("unknown source %q", source)
	}

	if errors.Is(err, sia.ErrUpstreamUnreachable) {
		slog.Debug("registry unreachable", "source", source, "err", err)
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("scrape failed", "source", source, "err", err)
		return nil, err
	}
	for _, rowErr := range rowErrs {
		slog.Warn("dropped malformed cell", "source", source, "err", rowErr)
	}

	out := make([]Course, 0, len(mapped))
	for _, course := range mapped {
		merged, err := s.persist(ctx, course)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, merged)
	}
	return out, nil
}

// RefreshGroups re-scrapes the groups of an already-known course by
// re-entering the legacy form through the search tuple that last
// located it.
func (s *Service) RefreshGroups(ctx context.Context, code string) ([]Group, error) {
	ctx, span := tracer.Start(ctx, "RefreshGroups")
	defer span.End()
	span.SetAttributes(attribute.String("code", code))

	stored, err := loadCourse(ctx, s.store, CourseID(code))
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.ScrapedWith == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingCourseData, code)
	}

	courses, err := s.FetchCourses(ctx, SourceForm, sia.Filter{
		Level:    stored.ScrapedWith.Level,
		Place:    stored.ScrapedWith.Place,
		Faculty:  stored.ScrapedWith.Faculty,
		Program:  stored.ScrapedWith.Program,
		Typology: stored.ScrapedWith.Typology,
		Code:     code,
	})
	if err != nil {
		return nil, err
	}
	for _, c := range courses {
		if c.Code == code {
			return c.Groups, nil
		}
	}
	return nil, nil
}

func (s *Service) fetchForm(ctx context.Context, filter sia.Filter) ([]Course, []error, error) {
	if s.opts.NewDriver == nil {
		return nil, nil, errors.New("no browser driver configured for form scraping")
	}

	proxy := s.acquireProxy(ctx)
	address := ""
	if proxy != nil {
		address = proxy.Address
	}

	driver, err := s.opts.NewDriver(ctx, address)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: opening browser session: %w", sia.ErrUpstreamUnreachable, err)
	}

	navigator := form.NewNavigator(driver, filter, form.Options{
		BaseURL: s.opts.RegistryBaseURL,
		Mode:    s.opts.FormMode,
	})

	started := timezone.Now()
	rows, rowErrs, err := navigator.Run(ctx)
	if proxy != nil {
		s.proxies.ReportSessionOutcome(ctx, *proxy, time.Since(started), err == nil)
	}
	if err != nil {
		return nil, rowErrs, err
	}

	mapped, mapErrs := MapForm(rows, filter, timezone.Now())
	return mapped, append(rowErrs, mapErrs...), nil
}

// acquireProxy picks the fastest usable proxy, or nothing: a proxyless
// session is the documented fallback when the pool is empty or every
// candidate fails its probe.
func (s *Service) acquireProxy(ctx context.Context) *proxypool.Proxy {
	if s.proxies == nil {
		return nil
	}
	candidates, err := s.proxies.ListUsable(ctx)
	if err != nil {
		if !errors.Is(err, proxypool.ErrNoProxies) {
			slog.Error("listing proxies", "err", err)
		}
		return nil
	}
	proxy, err := s.proxies.AcquireFastest(ctx, candidates, s.opts.PingTarget)
	if err != nil {
		slog.Error("racing proxies", "err", err)
		return nil
	}
	return proxy
}

// persist reconciles one mapped course against storage, writes it when
// the reconcile says so, and kicks off the detached index writes.
func (s *Service) persist(ctx context.Context, course Course) (Course, error) {
	stored, err := loadCourse(ctx, s.store, course.Id)
	if err != nil {
		return Course{}, err
	}

	result := Reconcile(course, stored, ReconcileOptions{CacheRate: s.opts.CacheRate})
	if result.ShouldPersist {
		if err := s.store.Set(ctx, coursePath(course.Id), encodeCourse(result.Merged), true); err != nil {
			return Course{}, err
		}
	}

	// indexing always runs when the scrape saw groups, even if the
	// course write itself was skipped as fresh
	if len(course.Groups) > 0 {
		s.indexGroups(result.Merged.Id, course.Code, course.Groups)
	}
	return result.Merged, nil
}

// indexGroups writes per-group documents and teacher back-references.
// The writes are detached from the caller: they run in parallel, each
// may fail independently, and failures only reach the log.
func (s *Service) indexGroups(courseId uint64, code string, groups []Group) {
	var wg sync.WaitGroup
	for _, group := range groups {
		wg.Add(1)
		go func(g Group) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
			defer cancel()

			err := s.store.Set(ctx, groupPath(courseId, g), docstore.Document{
				"name":       g.Name,
				"activity":   g.Activity,
				"spots":      g.Spots,
				"program":    g.Program,
				"courseCode": code,
			}, true)
			if err != nil {
				slog.Error("indexing group", "course", code, "group", g.Name, "err", err)
			}

			for _, teacher := range g.Teachers {
				err := s.store.Set(ctx, teacherPath(teacher), docstore.Document{
					"name":    teacher,
					"courses": docstore.ArrayUnion(code),
				}, true)
				if err != nil {
					slog.Error("indexing teacher", "teacher", teacher, "err", err)
				}
			}
		}(group)
	}
	if s.opts.indexSync {
		wg.Wait()
	}
}
