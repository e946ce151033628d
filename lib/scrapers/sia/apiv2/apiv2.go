// Package apiv2 talks to the registry's current JSON endpoint. It is
// search-oriented and non-paginated, but uses its own identifier and
// taxonomy scheme, so faculty and program have to be resolved through
// two sequential lookups before courses can be fetched.
package apiv2

import (
	"context"
	"fmt"
	"strings"
	"time"

	"courseatlas-backend/lib/catalog"
	"courseatlas-backend/lib/scrapers/sia"
	"courseatlas-backend/lib/telemetry"
	"courseatlas-backend/lib/textutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// this source's own vocabulary; anything outside it is a hard
// resolution failure, not a degraded result
var placeCodes = map[catalog.Place]string{
	catalog.PlaceBogota:   "1102",
	catalog.PlaceMedellin: "1103",
}

var levelCodes = map[catalog.Level]string{
	catalog.LevelUndergraduate: "PRE",
	catalog.LevelGraduate:      "POS",
}

type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	for k, v := range opts.Headers {
		client.SetHeader(k, v)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	telemetry.InstrumentResty(client, "scrapers/sia/apiv2")

	return &Client{http: client}
}

// FetchRows resolves the filter against this source's vocabulary and
// returns raw rows. The endpoint cannot filter by name server-side, so
// rows not containing the normalized search term are dropped here.
func (c *Client) FetchRows(ctx context.Context, filter sia.Filter) ([]Row, error) {
	var rows []Row
	var err error

	if filter.Code != "" {
		rows, err = c.searchByCode(ctx, filter.Code)
	} else {
		rows, err = c.searchByPlan(ctx, filter)
	}
	if err != nil {
		return nil, err
	}

	if filter.Name == "" {
		return rows, nil
	}

	term := textutil.NormalizeName(filter.Name)
	var filtered []Row
	for _, row := range rows {
		if strings.Contains(textutil.NormalizeName(row.Nombre), term) {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

func (c *Client) searchByCode(ctx context.Context, code string) ([]Row, error) {
	var rows []Row
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&rows).
		Get(fmt.Sprintf("/buscador/rest/cursos/codigo/%s", code))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sia.ErrUpstreamUnreachable, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: response not ok: %s", sia.ErrUpstreamUnreachable, res.Status())
	}
	return rows, nil
}

func (c *Client) searchByPlan(ctx context.Context, filter sia.Filter) ([]Row, error) {
	levelCode, ok := levelCodes[filter.Level]
	if !ok {
		return nil, sia.ResolutionFailedError{What: "level", Label: string(filter.Level)}
	}
	placeCode, ok := placeCodes[filter.Place]
	if !ok {
		return nil, sia.ResolutionFailedError{What: "place", Label: string(filter.Place)}
	}

	faculty, err := c.lookupFaculty(ctx, placeCode, filter.Faculty)
	if err != nil {
		return nil, err
	}
	program, err := c.lookupProgram(ctx, faculty.Id, levelCode, filter.Program)
	if err != nil {
		return nil, err
	}

	var rows []Row
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("tipologia", string(filter.Typology)).
		SetResult(&rows).
		Get(fmt.Sprintf("/buscador/rest/cursos/plan/%s", program.Id))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sia.ErrUpstreamUnreachable, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: response not ok: %s", sia.ErrUpstreamUnreachable, res.Status())
	}
	return rows, nil
}

func (c *Client) lookupFaculty(ctx context.Context, placeCode, label string) (FacultyRef, error) {
	var faculties []FacultyRef
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("sede", placeCode).
		SetResult(&faculties).
		Get("/buscador/rest/facultades")
	if err != nil {
		return FacultyRef{}, fmt.Errorf("%w: %w", sia.ErrUpstreamUnreachable, err)
	}
	if res.IsError() {
		return FacultyRef{}, fmt.Errorf("%w: response not ok: %s", sia.ErrUpstreamUnreachable, res.Status())
	}

	// this source prefixes faculty names with "FACULTAD DE", the
	// catalog does not
	normalized := textutil.NormalizeName(label)
	for _, f := range faculties {
		if strings.Contains(textutil.NormalizeName(f.Nombre), normalized) {
			return f, nil
		}
	}
	return FacultyRef{}, sia.ResolutionFailedError{What: "faculty", Label: label}
}

func (c *Client) lookupProgram(ctx context.Context, facultyId, levelCode, label string) (ProgramRef, error) {
	var programs []ProgramRef
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"facultad": facultyId,
			"nivel":    levelCode,
		}).
		SetResult(&programs).
		Get("/buscador/rest/planes")
	if err != nil {
		return ProgramRef{}, fmt.Errorf("%w: %w", sia.ErrUpstreamUnreachable, err)
	}
	if res.IsError() {
		return ProgramRef{}, fmt.Errorf("%w: response not ok: %s", sia.ErrUpstreamUnreachable, res.Status())
	}

	// program labels carry a numeric code prefix, the only join key
	// that is stable across this source and the catalog
	code := textutil.CodePrefix(label)
	normalized := textutil.NormalizeName(label)
	for _, p := range programs {
		if code != "" && p.Codigo == code {
			return p, nil
		}
		if textutil.NormalizeName(p.Nombre) == normalized {
			return p, nil
		}
	}
	return ProgramRef{}, sia.ResolutionFailedError{What: "program", Label: label}
}
