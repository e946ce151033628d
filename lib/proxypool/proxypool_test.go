package proxypool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"courseatlas-backend/lib/docstore"

	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	require.Equal(t, 2.0, Proxy{TimesDead: 10, TimesAlive: 5}.Score())
	require.Equal(t, 0.0, Proxy{}.Score())
	require.Equal(t, 3.0, Proxy{TimesDead: 3}.Score())
}

func TestListUsableEmptyPool(t *testing.T) {
	r := NewRegistry(docstore.NewMemoryStore(), DefaultOptions())
	_, err := r.ListUsable(context.Background())
	require.ErrorIs(t, err, ErrNoProxies)
}

func TestListUsableFilters(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	r := NewRegistry(store, DefaultOptions())

	require.NoError(t, r.Put(ctx, Proxy{Address: "good:8080", TimesDead: 1, TimesAlive: 10, Timeout: 3}))
	// death ratio 200% > 90% cutoff even though score 2 passes MaxScore
	require.NoError(t, r.Put(ctx, Proxy{Address: "deadly:8080", TimesDead: 10, TimesAlive: 5, Timeout: 3}))
	require.NoError(t, r.Put(ctx, Proxy{Address: "slow:8080", TimesDead: 0, TimesAlive: 10, Timeout: 45}))
	require.NoError(t, r.Put(ctx, Proxy{Address: "off:8080", Disabled: true, TimesAlive: 10}))

	usable, err := r.ListUsable(ctx)
	require.NoError(t, err)
	require.Len(t, usable, 1)
	require.Equal(t, "good:8080", usable[0].Address)
}

func TestListUsableDebugBypass(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(docstore.NewMemoryStore(), DefaultOptions())
	r.Debug = true

	require.NoError(t, r.Put(ctx, Proxy{Address: "deadly:8080", TimesDead: 10, TimesAlive: 5}))
	require.NoError(t, r.Put(ctx, Proxy{Address: "off:8080", Disabled: true}))

	usable, err := r.ListUsable(ctx)
	require.NoError(t, err)
	require.Len(t, usable, 2)
}

func TestAcquireFastestNoCandidates(t *testing.T) {
	r := NewRegistry(docstore.NewMemoryStore(), DefaultOptions())
	_, err := r.AcquireFastest(context.Background(), nil, "http://example.com")
	require.ErrorIs(t, err, ErrNoProxies)
}

func TestAcquireFastestAllFail(t *testing.T) {
	opts := DefaultOptions()
	opts.ProbeTimeout = time.Second
	store := docstore.NewMemoryStore()
	r := NewRegistry(store, opts)

	candidates := []Proxy{
		{Address: "127.0.0.1:1"},
		{Address: "127.0.0.1:2"},
	}
	winner, err := r.AcquireFastest(context.Background(), candidates, "http://127.0.0.1:1/ping")
	require.NoError(t, err)
	require.Nil(t, winner)

	// both failures recorded
	doc, err := store.Get(context.Background(), "proxies/127.0.0.1:1")
	require.NoError(t, err)
	require.Equal(t, int64(1), docstore.Int(doc, "timesDead"))
}

func TestReportSessionOutcome(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	r := NewRegistry(store, DefaultOptions())

	p := Proxy{Address: "p:8080"}
	require.NoError(t, r.Put(ctx, p))

	r.ReportSessionOutcome(ctx, p, time.Second*12, false)
	doc, err := store.Get(ctx, "proxies/p:8080")
	require.NoError(t, err)
	require.Equal(t, int64(1), docstore.Int(doc, "timesDead"))
	require.Equal(t, 12.0, docstore.Float(doc, "timeout"))

	r.ReportSessionOutcome(ctx, p, time.Second*90, true)
	doc, err = store.Get(ctx, "proxies/p:8080")
	require.NoError(t, err)
	// success does not touch the score counters
	require.Equal(t, int64(1), docstore.Int(doc, "timesDead"))
	require.Equal(t, int64(0), docstore.Int(doc, "timesAlive"))
	require.Equal(t, 90.0, docstore.Float(doc, "sessionTimeout"))
}

// the probe helper races real HTTP requests; exercise it against a local
// server acting as both proxy and ping target
func TestProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.ProbeTimeout = time.Second * 2
	r := NewRegistry(docstore.NewMemoryStore(), opts)

	elapsed, err := r.probe(Proxy{Address: server.Listener.Addr().String()}, server.URL+"/ping")
	require.NoError(t, err)
	require.Greater(t, elapsed, time.Duration(0))
}
