package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/sectionscope/api"
	"github.com/use-agent/sectionscope/cache"
	"github.com/use-agent/sectionscope/config"
	"github.com/use-agent/sectionscope/engine"
	"github.com/use-agent/sectionscope/extractor"
	"github.com/use-agent/sectionscope/pipeline"
	"github.com/use-agent/sectionscope/scraper"
	"github.com/use-agent/sectionscope/store"
	"github.com/use-agent/sectionscope/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("sectionscope starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"render", cfg.Browser.Enabled,
		"store", cfg.Store.Backend,
	)

	// ── 3. Static retriever + extraction engine ─────────────────────
	fetcher, err := engine.NewHTTPEngine(cfg.Fetch)
	if err != nil {
		slog.Error("failed to initialise HTTP engine", "error", err)
		os.Exit(1)
	}
	ext := extractor.New()

	// ── 4. Dynamic renderer (launches browser) ──────────────────────
	var (
		renderer pipeline.Renderer
		services = api.Services{StartTime: time.Now()}
	)
	if cfg.Browser.Enabled {
		browser, err := scraper.NewRodBrowser(cfg.Browser, cfg.Scraper)
		if err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer browser.Close()

		renderer = scraper.NewRenderer(browser, ext, scraper.OptionsFromConfig(cfg.Scraper))
		services.Browser = browser
	} else {
		slog.Warn("dynamic rendering disabled; thin pages will report a render error")
	}

	orchestrator := pipeline.New(fetcher, renderer, ext)
	services.Scraper = orchestrator

	// ── 5. Persistence (best-effort) ────────────────────────────────
	st := openStore(cfg.Store)
	defer st.Close()
	recorder := store.NewRecorder(st, cfg.Store.QueueSize)
	orchestrator.SetRecorder(recorder)
	services.History = st
	services.StoreName = st.Name()

	// ── 6. Webhook notifications ────────────────────────────────────
	if notifier := webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret); notifier != nil {
		orchestrator.SetNotifier(notifier)
		slog.Info("webhook notifications enabled", "endpoint", cfg.Webhook.URL)
	}

	// ── 7. Result cache + router ────────────────────────────────────
	services.Cache = cache.New(cfg.Cache.MaxEntries)
	router := api.NewRouter(cfg, services)

	// ── 8. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 9. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	if err := recorder.Close(ctx); err != nil {
		slog.Warn("summary queue not fully drained", "error", err)
	}

	slog.Info("sectionscope stopped")
}

// openStore connects the configured backend. A backend that cannot be
// reached degrades to no persistence; scraping keeps working.
func openStore(cfg config.StoreConfig) store.Store {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Warn("store unavailable, summaries will not be persisted",
			"backend", cfg.Backend,
			"error", err,
		)
		return store.Nop{}
	}
	slog.Info("store connected", "backend", st.Name())
	return st
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
