package http

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"launchrates/internal/core"
	applog "launchrates/internal/log"
)

// HeaderChartState tells PNG clients whether the image is a placeholder.
const HeaderChartState = "X-Chart-State"

const readyTimeout = 2 * time.Second

type chartResponse struct {
	Chart core.ChartSpec `json:"chart"`
	Error string         `json:"error,omitempty"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().Text("ok").Write(w)
}

// handleReady runs every readiness check. The dataset is loaded before the
// server starts, so only external connections are checked here.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failed := map[string]string{}
	for name, check := range s.readyChecks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "failed", failed)
		NewResponse().
			Status(http.StatusServiceUnavailable).
			JSON(map[string]any{"status": "unavailable", "failed": failed}).
			Write(w)
		return
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"http":      s.tracer.GetMetrics(),
		"ratelimit": s.limiter.GetMetrics(),
		"security":  s.detector.GetMetrics(),
	}
	for name, fn := range s.stats {
		out[name] = fn()
	}
	NewResponse().JSON(out).Write(w)
}

func (s *Server) handleLaunchOptions(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.launches.Options()).Write(w)
}

func (s *Server) handleProportion(w http.ResponseWriter, r *http.Request) {
	view := s.launches.Proportion(r.Context(), ParseSites(r.URL.Query()))
	NewResponse().JSON(view).Write(w)
}

func (s *Server) handleScatter(w http.ResponseWriter, r *http.Request) {
	spec, err := s.scatterSpec(r)
	if err != nil {
		NewResponse().
			Status(http.StatusBadRequest).
			JSON(chartResponse{Chart: emptyScatter(), Error: err.Error()}).
			Write(w)
		return
	}
	NewResponse().JSON(chartResponse{Chart: spec}).Write(w)
}

func (s *Server) scatterSpec(r *http.Request) (core.ChartSpec, error) {
	rng, err := ParseRange(r.URL.Query(), s.launches.Domain())
	if err != nil {
		return core.ChartSpec{}, err
	}
	return s.launches.Scatter(r.Context(), rng)
}

func emptyScatter() core.ChartSpec {
	return core.ChartSpec{Kind: core.ChartScatter, Empty: true, Series: []core.ChartSeries{}}
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.currencies.Defaults()).Write(w)
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	base := ParseBase(r.URL.Query(), s.currencies.Defaults().Base)
	NewResponse().JSON(s.currencies.Histogram(r.Context(), base)).Write(w)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := ParseConversion(r.URL.Query(), s.conversionDefaults())
	NewResponse().JSON(s.currencies.Convert(r.Context(), q)).Write(w)
}

func (s *Server) handleCurrencyPage(w http.ResponseWriter, r *http.Request) {
	q := ParseConversion(r.URL.Query(), s.conversionDefaults())
	NewResponse().JSON(s.currencies.Page(r.Context(), q)).Write(w)
}

func (s *Server) conversionDefaults() ConversionDefaults {
	d := s.currencies.Defaults()
	return ConversionDefaults{Base: d.Base, Target: d.Target, Amount: d.Amount}
}

// handleChartPNG renders one of the dashboard charts. Failed fetches still
// produce an image; the header carries the state.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]

	var spec core.ChartSpec
	state := "ok"
	switch name {
	case "proportion":
		spec = s.launches.Proportion(ctx, ParseSites(r.URL.Query())).Chart
	case "scatter":
		var err error
		if spec, err = s.scatterSpec(r); err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
	case "histogram":
		view := s.currencies.Histogram(ctx, ParseBase(r.URL.Query(), s.currencies.Defaults().Base))
		spec, state = view.Chart, string(view.State)
	default:
		NotFoundError("unknown chart " + name).Write(w)
		return
	}
	if spec.Empty && state == "ok" {
		state = "empty"
	}

	var buf bytes.Buffer
	if err := s.renderer.PNG(&buf, spec); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Chart rendering failed", "chart", name, applog.FieldError, err)
		InternalServerError("chart rendering failed").Write(w)
		return
	}
	NewResponse().Header(HeaderChartState, state).PNG(buf.Bytes()).Write(w)
}
