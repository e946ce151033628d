// Package apiv1 talks to the registry's legacy JSON endpoint. It is
// paginated, keyed by the same labels the form uses, and prone to
// rendering the same course several times across faculties.
package apiv1

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"courseatlas-backend/lib/scrapers/sia"
	"courseatlas-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// PageSize is fixed at 30: the downstream document store limits
// disjunction queries to 30 operands, not the API itself.
const PageSize = 30

type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	// injected on every request, used upstream as a feature flag
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

	telemetry.InstrumentResty(client, "scrapers/sia/apiv1")

	return &Client{http: client}
}

type responseBody struct {
	Data       []Row `json:"data"`
	TotalPages int   `json:"totalPaginas"`
}

// FetchRows pulls every page matching the filter. Rows come back raw;
// canonical mapping and dedup belong to the caller.
func (c *Client) FetchRows(ctx context.Context, filter sia.Filter) ([]Row, error) {
	var rows []Row

	page := 1
	for {
		res, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"nivel":     string(filter.Level),
				"sede":      string(filter.Place),
				"facultad":  filter.Faculty,
				"plan":      filter.Program,
				"tipologia": string(filter.Typology),
				"codigo":    filter.Code,
				"nombre":    filter.Name,
				"pagina":    strconv.Itoa(page),
				"registros": strconv.Itoa(PageSize),
			}).
			SetResult(&responseBody{}).
			Get("/cursos")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", sia.ErrUpstreamUnreachable, err)
		}
		if res.IsError() {
			return nil, fmt.Errorf("%w: response not ok: %s", sia.ErrUpstreamUnreachable, res.Status())
		}

		body := res.Result().(*responseBody)
		rows = append(rows, body.Data...)

		if page >= body.TotalPages || len(body.Data) < PageSize {
			break
		}
		page++
	}

	return rows, nil
}
