package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"launchrates/internal/amqp"
	"launchrates/internal/backend"
	"launchrates/internal/cache"
	"launchrates/internal/config"
	"launchrates/internal/core"
	"launchrates/internal/dataset"
	apphttp "launchrates/internal/http"
	applog "launchrates/internal/log"
	"launchrates/internal/rates"
	"launchrates/internal/render"
	"launchrates/internal/services"
	"launchrates/internal/ws"
)

const rateCacheSize = 64

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:  applog.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	dash, err := config.LoadDashboard(cfg.DashboardConfig)
	if err != nil {
		logger.Error("Dashboard configuration failed", applog.FieldError, err, "path", cfg.DashboardConfig)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Dataset
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	dataLogger := logger.WithComponent(applog.ComponentDataset)
	dataCtx := applog.NewContext(ctx, dataLogger)
	src, err := backend.NewFactory(dataLogger.Logger).CreateBackend(dataCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize dataset backend", applog.FieldError, err, "backend", cfg.DatasetBackend)
		os.Exit(1)
	}
	defer src.Close()

	store, err := dataset.Open(dataCtx, src.Source)
	if err != nil {
		logger.Error("Failed to load dataset", applog.FieldError, err, "backend", cfg.DatasetBackend)
		os.Exit(1)
	}

	readyChecks := map[string]apphttp.CheckFunc{}
	if src.Ping != nil {
		readyChecks["dataset"] = apphttp.CheckFunc(src.Ping)
	}
	stats := map[string]func() any{}

	// Rate provider
	rateOpts := rates.Options{BaseURL: cfg.RatesBaseURL, Timeout: cfg.RatesTimeout}

	if cfg.RatesCacheTTL > 0 {
		rateCache := cache.NewLRUCache[core.RateTable](rateCacheSize, cfg.RatesCacheTTL)
		janitor := cache.NewJanitor(rateCache)
		janitor.Start(cfg.RatesCacheTTL)
		defer janitor.Stop()
		rateOpts.Cache = rateCache
		stats["rates_cache"] = func() any { return rateCache.Stats() }
		logger.Info("Rate cache enabled", "ttl", cfg.RatesCacheTTL)
	}

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			rateOpts.Publisher = amqpClient
			readyChecks["amqp"] = func(context.Context) error { return amqpClient.Ping() }
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange)
		}
	}

	rateClient := rates.NewClient(rateOpts)
	stats["rates"] = func() any { return rateClient.Stats() }

	// Dashboards
	launches := services.NewLaunchService(store, dash.Launch.PayloadStep)
	currencies := services.NewCurrencyService(rateClient, services.CurrencyOptions{
		Currencies:    dash.Currency.Currencies,
		DefaultBase:   dash.Currency.DefaultBase,
		DefaultTarget: dash.Currency.DefaultTarget,
		DefaultAmount: dash.Currency.DefaultAmount,
	})

	live := ws.NewHandler(launches, currencies, logger)
	defer live.Close()
	stats["ws"] = func() any { return live.Stats() }

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Launches:    launches,
		Currencies:  currencies,
		Renderer:    render.New(dash.Chart.Width, dash.Chart.Height),
		Live:        live,
		Logger:      logger,
		ReadyChecks: readyChecks,
		Stats:       stats,
	}, apphttp.Options{
		RateLimit:      cfg.RateLimit,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		logger.Error("Failed to create server", applog.FieldError, err)
		os.Exit(1)
	}

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.RatesTimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		live.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting launchrates server",
		"port", cfg.Port,
		"backend", cfg.DatasetBackend,
		"launches", store.Len(),
		"sites", len(store.Sites()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
