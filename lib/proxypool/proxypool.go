package proxypool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"courseatlas-backend/lib/docstore"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("lib/proxypool")

// ErrNoProxies means the pool has no proxies configured at all. Callers
// must treat this as "run without a proxy", not as a scrape failure.
var ErrNoProxies = errors.New("no proxies configured")

// Proxy is a long-lived outbound egress point. Counters are soft health
// signals updated without a transaction; approximate totals are fine.
type Proxy struct {
	Address        string
	Disabled       bool
	TimesDead      int64
	TimesAlive     int64
	Timeout        float64 // seconds, latest sample
	SessionTimeout float64 // seconds, latest successful full session
}

// Score is the death ratio, lower is better. A proxy that has never
// succeeded scores as if every death counted against a single success.
func (p Proxy) Score() float64 {
	if p.TimesAlive == 0 {
		return float64(p.TimesDead)
	}
	return float64(p.TimesDead) / float64(p.TimesAlive)
}

type Options struct {
	// filters for ListUsable
	MaxScore        float64
	MaxTimeoutSecs  float64
	DeadRatioCutoff float64
	// per-candidate probe timeout for AcquireFastest
	ProbeTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxScore:        2,
		MaxTimeoutSecs:  30,
		DeadRatioCutoff: 0.9,
		ProbeTimeout:    time.Second * 60,
	}
}

type Registry struct {
	store docstore.Store
	opts  Options
	// Debug bypasses every usability filter so dead proxies can still be
	// inspected from the CLI.
	Debug bool
}

func NewRegistry(store docstore.Store, opts Options) *Registry {
	defaults := DefaultOptions()
	if opts.MaxScore == 0 {
		opts.MaxScore = defaults.MaxScore
	}
	if opts.MaxTimeoutSecs == 0 {
		opts.MaxTimeoutSecs = defaults.MaxTimeoutSecs
	}
	if opts.DeadRatioCutoff == 0 {
		opts.DeadRatioCutoff = defaults.DeadRatioCutoff
	}
	if opts.ProbeTimeout == 0 {
		opts.ProbeTimeout = defaults.ProbeTimeout
	}
	return &Registry{store: store, opts: opts}
}

func proxyPath(address string) string {
	return "proxies/" + address
}

func proxyFromDoc(doc docstore.Document) Proxy {
	return Proxy{
		Address:        docstore.String(doc, "address"),
		Disabled:       docstore.Bool(doc, "disabled"),
		TimesDead:      docstore.Int(doc, "timesDead"),
		TimesAlive:     docstore.Int(doc, "timesAlive"),
		Timeout:        docstore.Float(doc, "timeout"),
		SessionTimeout: docstore.Float(doc, "sessionTimeout"),
	}
}

// Put registers or overwrites a proxy record.
func (r *Registry) Put(ctx context.Context, p Proxy) error {
	return r.store.Set(ctx, proxyPath(p.Address), docstore.Document{
		"address":        p.Address,
		"disabled":       p.Disabled,
		"timesDead":      p.TimesDead,
		"timesAlive":     p.TimesAlive,
		"timeout":        p.Timeout,
		"sessionTimeout": p.SessionTimeout,
	}, true)
}

// ListUsable returns proxies healthy enough for a scrape session. With
// Debug set, every proxy in the pool is returned regardless of health.
func (r *Registry) ListUsable(ctx context.Context) ([]Proxy, error) {
	ctx, span := tracer.Start(ctx, "ListUsable")
	defer span.End()

	docs, err := r.store.List(ctx, "proxies/")
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoProxies
	}

	var out []Proxy
	for _, doc := range docs {
		p := proxyFromDoc(doc)
		if r.Debug {
			out = append(out, p)
			continue
		}
		if p.Disabled {
			continue
		}
		if p.Score() > r.opts.MaxScore {
			continue
		}
		if p.Timeout > r.opts.MaxTimeoutSecs {
			continue
		}
		if float64(p.TimesDead) > float64(p.TimesAlive)*r.opts.DeadRatioCutoff {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// AcquireFastest races a reachability probe against every candidate and
// returns the first to succeed. Losers are not cancelled; their outcome
// is recorded by their own goroutine after the winner has already been
// handed to the caller. Returns nil, nil when every probe fails.
func (r *Registry) AcquireFastest(ctx context.Context, candidates []Proxy, pingTarget string) (*Proxy, error) {
	ctx, span := tracer.Start(ctx, "AcquireFastest")
	defer span.End()

	if len(candidates) == 0 {
		return nil, ErrNoProxies
	}

	type outcome struct {
		proxy Proxy
		ok    bool
	}
	results := make(chan outcome, len(candidates))

	for _, candidate := range candidates {
		go func(p Proxy) {
			elapsed, err := r.probe(p, pingTarget)
			if err != nil {
				slog.Debug("proxy probe failed", "proxy", p.Address, "err", err)
				r.recordProbe(p, elapsed, false)
				results <- outcome{proxy: p, ok: false}
				return
			}
			r.recordProbe(p, elapsed, true)
			results <- outcome{proxy: p, ok: true}
		}(candidate)
	}

	for i := 0; i < len(candidates); i++ {
		select {
		case res := <-results:
			if res.ok {
				return &res.proxy, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, nil
}

func (r *Registry) probe(p Proxy, pingTarget string) (time.Duration, error) {
	client := resty.New().
		SetProxy(fmt.Sprintf("http://%s", p.Address)).
		SetTimeout(r.opts.ProbeTimeout)

	start := time.Now()
	res, err := client.R().Get(pingTarget)
	elapsed := time.Since(start)
	if err != nil {
		return elapsed, err
	}
	if res.IsError() {
		return elapsed, fmt.Errorf("probe response not ok: %s", res.Status())
	}
	return elapsed, nil
}

// recordProbe persists a probe outcome. Detached from the caller's
// context: late losers settle after AcquireFastest has returned.
func (r *Registry) recordProbe(p Proxy, elapsed time.Duration, ok bool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	counter := "timesDead"
	if ok {
		counter = "timesAlive"
	}
	err := r.store.Set(ctx, proxyPath(p.Address), docstore.Document{
		"address": p.Address,
		counter:   docstore.Increment(1),
		"timeout": elapsed.Seconds(),
	}, true)
	if err != nil {
		slog.Error("failed to record proxy probe", "proxy", p.Address, "err", err)
	}
}

// ReportSessionOutcome records how a full scrape session behind the
// proxy went. A successful session updates the session timing metric
// only, so long but working sessions do not hurt the score.
func (r *Registry) ReportSessionOutcome(ctx context.Context, p Proxy, elapsed time.Duration, ok bool) {
	fields := docstore.Document{"address": p.Address}
	if ok {
		fields["sessionTimeout"] = elapsed.Seconds()
	} else {
		fields["timesDead"] = docstore.Increment(1)
		fields["timeout"] = elapsed.Seconds()
	}
	err := r.store.Set(ctx, proxyPath(p.Address), fields, true)
	if err != nil {
		slog.Error("failed to record session outcome", "proxy", p.Address, "err", err)
	}
}
