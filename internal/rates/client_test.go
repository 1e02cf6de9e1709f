package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"launchrates/internal/cache"
	"launchrates/internal/core"
)

type recordingPublisher struct {
	mu     sync.Mutex
	tables []core.RateTable
	err    error
}

func (p *recordingPublisher) PublishRatesFetched(_ context.Context, t core.RateTable, _ time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tables = append(p.tables, t)
	return p.err
}

func TestFetch(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base":"USD","date":"2024-05-01","rates":{"USD":1,"EUR":0.93,"GBP":0.8,"RUB":91.5}}`))
	}))
	defer srv.Close()

	pub := &recordingPublisher{}
	c := NewClient(Options{BaseURL: srv.URL + "/", Publisher: pub})

	table, err := c.Fetch(context.Background(), "usd")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotPath != "/latest/USD" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if table.Base != "USD" || table.Rates["EUR"] != 0.93 || len(table.Rates) != 4 {
		t.Fatalf("unexpected table %+v", table)
	}
	if len(pub.tables) != 1 || pub.tables[0].Base != "USD" {
		t.Fatalf("expected one published event, got %+v", pub.tables)
	}
	if st := c.Stats(); st.Requests != 1 || st.Failures != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestFetchFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unsupported code", http.StatusNotFound)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"rates":`))
		}},
		{"no rates", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"base":"USD"}`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			pub := &recordingPublisher{}
			c := NewClient(Options{BaseURL: srv.URL, Publisher: pub})
			_, err := c.Fetch(context.Background(), "USD")
			if !errors.Is(err, core.ErrRemoteFetch) {
				t.Fatalf("expected ErrRemoteFetch, got %v", err)
			}
			if len(pub.tables) != 0 {
				t.Fatalf("failed fetch must not publish")
			}
			if st := c.Stats(); st.Failures != 1 {
				t.Fatalf("expected one failure, got %+v", st)
			}
		})
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: url, Timeout: time.Second})
	if _, err := c.Fetch(context.Background(), "USD"); !errors.Is(err, core.ErrRemoteFetch) {
		t.Fatalf("expected ErrRemoteFetch, got %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	if _, err := c.Fetch(context.Background(), "USD"); !errors.Is(err, core.ErrRemoteFetch) {
		t.Fatalf("expected ErrRemoteFetch on timeout, got %v", err)
	}
}

func TestFetchInvalidBase(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:0"})
	if _, err := c.Fetch(context.Background(), "dollars"); !errors.Is(err, core.ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
	if c.Stats().Requests != 0 {
		t.Fatalf("invalid base must not reach the provider")
	}
}

func TestFetchWithoutCacheAlwaysRefetches(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"rates":{"USD":1}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(context.Background(), "USD"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 remote calls, got %d", calls.Load())
	}
}

func TestFetchWithCache(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"rates":{"USD":1,"EUR":0.9}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Cache: cache.NewLRUCache[core.RateTable](8, time.Minute)})
	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(context.Background(), "USD"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single remote call with cache, got %d", calls.Load())
	}
	if _, err := c.Fetch(context.Background(), "EUR"); err != nil {
		t.Fatalf("fetch EUR: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("different base must miss the cache")
	}
}

func TestFetchSharesInFlightCalls(t *testing.T) {
	var calls atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		w.Write([]byte(`{"rates":{"USD":1}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Timeout: 5 * time.Second})

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := c.Fetch(context.Background(), "USD")
		errs <- err
	}()
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := c.Fetch(context.Background(), "USD")
		errs <- err
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected concurrent fetches to share one call, got %d", calls.Load())
	}
}

func TestSharedFetchSurvivesFirstCallerCancel(t *testing.T) {
	var calls atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		w.Write([]byte(`{"rates":{"USD":1,"EUR":0.9}}`))
	}))
	defer srv.Close()
	releaseServer := sync.OnceFunc(func() { close(release) })
	defer releaseServer()

	c := NewClient(Options{BaseURL: srv.URL, Timeout: 5 * time.Second})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Fetch(firstCtx, "USD")
		firstErr <- err
	}()
	<-started

	secondErr := make(chan error, 1)
	var second core.RateTable
	go func() {
		var err error
		second, err = c.Fetch(context.Background(), "USD")
		secondErr <- err
	}()
	time.Sleep(50 * time.Millisecond)
	cancelFirst()
	if err := <-firstErr; !errors.Is(err, core.ErrRemoteFetch) || !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller should stop waiting with a fetch error, got %v", err)
	}
	releaseServer()

	if err := <-secondErr; err != nil {
		t.Fatalf("second caller failed after first cancelled: %v", err)
	}
	if second.Rates["EUR"] != 0.9 {
		t.Fatalf("unexpected table %+v", second)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one remote call, got %d", calls.Load())
	}
}
