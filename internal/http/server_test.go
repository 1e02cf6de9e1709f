package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"launchrates/internal/core"
	"launchrates/internal/dataset"
	"launchrates/internal/render"
	"launchrates/internal/services"
)

type fakeFetcher struct {
	tables map[string]core.RateTable
}

func (f fakeFetcher) Fetch(_ context.Context, base string) (core.RateTable, error) {
	if t, ok := f.tables[base]; ok {
		return t, nil
	}
	return core.RateTable{}, fmt.Errorf("%w: status 404", core.ErrRemoteFetch)
}

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	store, err := dataset.NewStore([]core.LaunchRecord{
		{Site: "CCAFS LC-40", PayloadMassKg: 0, Outcome: core.Failure},
		{Site: "CCAFS LC-40", PayloadMassKg: 2500, Outcome: core.Success},
		{Site: "VAFB SLC-4E", PayloadMassKg: 9600, Outcome: core.Success},
		{Site: "KSC LC-39A", PayloadMassKg: 4000, Outcome: core.Success},
		{Site: "KSC LC-39A", PayloadMassKg: 5300, Outcome: core.Success},
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	fetcher := fakeFetcher{tables: map[string]core.RateTable{
		"USD": {Base: "USD", Rates: map[string]float64{"USD": 1, "EUR": 0.9, "RUB": 92.35}},
	}}

	deps.Launches = services.NewLaunchService(store, 2000)
	deps.Currencies = services.NewCurrencyService(fetcher, services.CurrencyOptions{})
	deps.Renderer = render.New(300, 200)

	srv, err := NewServer(":0", deps, Options{RateLimit: 100})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Deps{})

	if rr := get(t, srv, "/healthz"); rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rr.Code, rr.Body.String())
	}
	if rr := get(t, srv, "/readyz"); rr.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", rr.Code)
	}
}

func TestReadyReportsFailedChecks(t *testing.T) {
	srv := newTestServer(t, Deps{ReadyChecks: map[string]CheckFunc{
		"amqp":   func(context.Context) error { return errors.New("connection closed") },
		"sqlite": func(context.Context) error { return nil },
	}})

	rr := get(t, srv, "/readyz")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d", rr.Code)
	}
	body := decode[struct {
		Failed map[string]string `json:"failed"`
	}](t, rr)
	if len(body.Failed) != 1 || body.Failed["amqp"] != "connection closed" {
		t.Fatalf("unexpected failed checks %+v", body.Failed)
	}
}

func TestLaunchOptions(t *testing.T) {
	srv := newTestServer(t, Deps{})
	rr := get(t, srv, "/api/launches/options")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	opts := decode[services.LaunchOptions](t, rr)
	if len(opts.Sites) != 4 || opts.Sites[0].Value != core.AllSentinel {
		t.Fatalf("unexpected site options %+v", opts.Sites)
	}
	if opts.Payload.Max != 10000 || opts.Payload.Step != 2000 {
		t.Fatalf("unexpected slider %+v", opts.Payload)
	}
}

func TestProportion(t *testing.T) {
	srv := newTestServer(t, Deps{})

	tests := []struct {
		name      string
		target    string
		wantCase  core.AggregationCase
		wantTitle string
		wantEcho  bool
	}{
		{"no site means all", "/api/launches/proportion", core.CaseAllSites, "Successful launches by site (all launch sites)", true},
		{"all sentinel", "/api/launches/proportion?site=all", core.CaseAllSites, "Successful launches by site (all launch sites)", true},
		{"single site", "/api/launches/proportion?site=CCAFS+LC-40", core.CaseSingleSite, "Launch outcomes for site CCAFS LC-40", false},
		{"repeated sites", "/api/launches/proportion?site=CCAFS+LC-40&site=KSC+LC-39A", core.CaseMultipleSites, "Successful launches by site (CCAFS LC-40, KSC LC-39A)", false},
		{"comma separated", "/api/launches/proportion?site=CCAFS+LC-40,KSC+LC-39A", core.CaseMultipleSites, "Successful launches by site (CCAFS LC-40, KSC LC-39A)", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, srv, tt.target)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			view := decode[services.ProportionView](t, rr)
			if view.Result.Case != tt.wantCase {
				t.Errorf("case = %q, want %q", view.Result.Case, tt.wantCase)
			}
			if view.Chart.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", view.Chart.Title, tt.wantTitle)
			}
			if (view.Selection != nil) != tt.wantEcho {
				t.Errorf("selection echo = %v, want %v", view.Selection, tt.wantEcho)
			}
		})
	}
}

func TestScatter(t *testing.T) {
	srv := newTestServer(t, Deps{})

	rr := get(t, srv, "/api/launches/scatter?low=2000&high=6000")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[chartResponse](t, rr)
	if resp.Chart.Kind != core.ChartScatter || resp.Chart.PointCount() != 3 {
		t.Fatalf("unexpected chart %+v", resp.Chart)
	}

	for _, target := range []string{
		"/api/launches/scatter?low=abc",
		"/api/launches/scatter?low=5000&high=1000",
		"/api/launches/scatter?high=20000",
	} {
		rr := get(t, srv, target)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d, want 400", target, rr.Code)
		}
		if resp := decode[chartResponse](t, rr); !resp.Chart.Empty || resp.Error == "" {
			t.Fatalf("%s should return an empty chart and an error, got %+v", target, resp)
		}
	}
}

func TestRates(t *testing.T) {
	srv := newTestServer(t, Deps{})

	t.Run("currencies", func(t *testing.T) {
		d := decode[services.CurrencyDefaults](t, get(t, srv, "/api/rates/currencies"))
		if d.Base != "USD" || len(d.Currencies) != 4 {
			t.Fatalf("unexpected defaults %+v", d)
		}
	})

	t.Run("histogram", func(t *testing.T) {
		view := decode[services.HistogramView](t, get(t, srv, "/api/rates/histogram?base=usd"))
		if view.State != services.StateOK || view.Chart.PointCount() != 3 {
			t.Fatalf("unexpected view %+v", view)
		}
		view = decode[services.HistogramView](t, get(t, srv, "/api/rates/histogram?base=GBP"))
		if view.State != services.StateError || !view.Chart.Empty || view.Message == "" {
			t.Fatalf("failed fetch should give an error state, got %+v", view)
		}
	})

	tests := []struct {
		name      string
		target    string
		wantText  string
		wantState services.State
	}{
		{"conversion", "/api/rates/convert?amount=100&base=USD&target=EUR", "100 USD = 90.00 EUR", services.StateOK},
		{"decimal comma", "/api/rates/convert?amount=1,5&base=USD&target=RUB", "1.5 USD = 138.53 RUB", services.StateOK},
		{"default amount", "/api/rates/convert?target=EUR", "1 USD = 0.90 EUR", services.StateOK},
		{"empty amount", "/api/rates/convert?amount=&target=EUR", "", services.StateEmpty},
		{"invalid amount", "/api/rates/convert?amount=abc&target=EUR", "", services.StateEmpty},
		{"missing target", "/api/rates/convert?amount=1&target=JPY", "Rate for JPY unavailable", services.StateUnavailable},
		{"failed fetch", "/api/rates/convert?amount=1&base=GBP", "", services.StateError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, srv, tt.target)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			view := decode[services.ConversionView](t, rr)
			if view.Text != tt.wantText || view.State != tt.wantState {
				t.Fatalf("got %q/%s, want %q/%s", view.Text, view.State, tt.wantText, tt.wantState)
			}
		})
	}

	t.Run("page", func(t *testing.T) {
		page := decode[services.CurrencyPage](t, get(t, srv, "/api/rates/page?amount=2&target=EUR"))
		if page.Histogram.State != services.StateOK || page.Conversion.Text != "2 USD = 1.80 EUR" {
			t.Fatalf("unexpected page %+v", page)
		}
	})
}

func TestChartPNG(t *testing.T) {
	srv := newTestServer(t, Deps{})

	tests := []struct {
		target    string
		wantState string
	}{
		{"/charts/proportion.png?site=KSC+LC-39A", "ok"},
		{"/charts/scatter.png?low=0&high=2000", "ok"},
		{"/charts/scatter.png?low=3000&high=3500", "empty"},
		{"/charts/histogram.png?base=USD", "ok"},
		{"/charts/histogram.png?base=GBP", "error"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rr := get(t, srv, tt.target)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
			}
			if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
				t.Fatalf("Content-Type = %q", ct)
			}
			if got := rr.Header().Get(HeaderChartState); got != tt.wantState {
				t.Fatalf("chart state = %q, want %q", got, tt.wantState)
			}
			if _, err := png.Decode(rr.Body); err != nil {
				t.Fatalf("body is not a PNG: %v", err)
			}
		})
	}

	if rr := get(t, srv, "/charts/radar.png"); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown chart status = %d", rr.Code)
	}
	if rr := get(t, srv, "/charts/scatter.png?high=99999"); rr.Code != http.StatusBadRequest {
		t.Fatalf("out of domain status = %d", rr.Code)
	}
}

func TestMiddlewareStack(t *testing.T) {
	srv := newTestServer(t, Deps{Stats: map[string]func() any{
		"rates": func() any { return map[string]int{"requests": 7} },
	}})

	rr := get(t, srv, "/api/launches/options")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	rr = get(t, srv, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rr.Code)
	}
	for _, key := range []string{`"http"`, `"ratelimit"`, `"security"`, `"rates"`, `"requests":7`} {
		if !strings.Contains(rr.Body.String(), key) {
			t.Errorf("metrics missing %s: %s", key, rr.Body.String())
		}
	}

	if rr := get(t, srv, "/nope"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/launches/options", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d", rr.Code)
	}
}

func TestRateLimitedRoutes(t *testing.T) {
	srv := newTestServer(t, Deps{})

	limited, err := NewServer(":0", Deps{
		Launches:   srv.launches,
		Currencies: srv.currencies,
		Renderer:   srv.renderer,
	}, Options{RateLimit: 2})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer limited.Shutdown(context.Background())

	for i := 0; i < 2; i++ {
		if rr := get(t, limited, "/api/rates/currencies"); rr.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rr.Code)
		}
	}
	if rr := get(t, limited, "/api/rates/currencies"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", rr.Code)
	}
	if rr := get(t, limited, "/api/launches/options"); rr.Code != http.StatusOK {
		t.Fatalf("launch routes are not rate limited, got %d", rr.Code)
	}
}
