package http

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"launchrates/internal/core"
	applog "launchrates/internal/log"
	"launchrates/internal/middleware/ratelimit"
	"launchrates/internal/middleware/security"
	"launchrates/internal/middleware/trace"
	"launchrates/internal/services"
)

// LaunchDashboard is the launch-outcome pipeline used by the handlers.
type LaunchDashboard interface {
	Options() services.LaunchOptions
	Proportion(ctx context.Context, raw core.RawSelection) services.ProportionView
	Scatter(ctx context.Context, rng core.PayloadRange) (core.ChartSpec, error)
	Domain() core.PayloadRange
}

// CurrencyDashboard is the rate pipeline used by the handlers.
type CurrencyDashboard interface {
	Defaults() services.CurrencyDefaults
	Histogram(ctx context.Context, base string) services.HistogramView
	Convert(ctx context.Context, q core.ConversionQuery) services.ConversionView
	Page(ctx context.Context, q core.ConversionQuery) services.CurrencyPage
}

// ChartRenderer draws a chart description as PNG.
type ChartRenderer interface {
	PNG(w io.Writer, spec core.ChartSpec) error
}

// CheckFunc reports whether a dependency is ready.
type CheckFunc func(ctx context.Context) error

// Deps wires the server to the dashboards. Live, ReadyChecks and Stats are
// optional.
type Deps struct {
	Launches   LaunchDashboard
	Currencies CurrencyDashboard
	Renderer   ChartRenderer
	Live       http.Handler
	Logger     *applog.Logger

	ReadyChecks map[string]CheckFunc
	Stats       map[string]func() any
}

// Options tunes the middleware stack.
type Options struct {
	RateLimit      int
	TrustedProxies []string
}

type Server struct {
	http.Server
	launches   LaunchDashboard
	currencies CurrencyDashboard
	renderer   ChartRenderer

	tracer   *trace.Middleware
	detector *security.Detector
	limiter  *ratelimit.Limiter

	readyChecks map[string]CheckFunc
	stats       map[string]func() any

	shutdownOnce sync.Once
}

func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	detector, err := security.NewDetector(opts.TrustedProxies...)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		launches:    deps.Launches,
		currencies:  deps.Currencies,
		renderer:    deps.Renderer,
		tracer:      trace.NewMiddleware(detector.ExtractClientIP),
		detector:    detector,
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		readyChecks: deps.ReadyChecks,
		stats:       deps.Stats,
	}

	r := mux.NewRouter()
	r.Use(
		applog.Middleware(logger),
		s.tracer.Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		detector.Middleware,
	)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError(http.MethodGet).Write(w)
	})

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	launches := r.PathPrefix("/api/launches").Subrouter()
	launches.HandleFunc("/options", s.handleLaunchOptions).Methods(http.MethodGet)
	launches.HandleFunc("/proportion", s.handleProportion).Methods(http.MethodGet)
	launches.HandleFunc("/scatter", s.handleScatter).Methods(http.MethodGet)

	limit := s.limiter.Middleware(detector.ExtractClientIP, nil)

	rates := r.PathPrefix("/api/rates").Subrouter()
	rates.Use(limit)
	rates.HandleFunc("/currencies", s.handleCurrencies).Methods(http.MethodGet)
	rates.HandleFunc("/histogram", s.handleHistogram).Methods(http.MethodGet)
	rates.HandleFunc("/convert", s.handleConvert).Methods(http.MethodGet)
	rates.HandleFunc("/page", s.handleCurrencyPage).Methods(http.MethodGet)

	charts := r.PathPrefix("/charts").Subrouter()
	charts.Use(limit)
	charts.HandleFunc("/{name:[a-z]+}.png", s.handleChartPNG).Methods(http.MethodGet)

	if deps.Live != nil {
		r.Handle("/ws", deps.Live).Methods(http.MethodGet)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Shutdown stops the rate limiter and the HTTP server. Safe to call twice.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
