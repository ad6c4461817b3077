package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/hijama-dm-responder/cmd/mainconfig"
	"github.com/wolfman30/hijama-dm-responder/internal/api/router"
	"github.com/wolfman30/hijama-dm-responder/internal/app/bootstrap"
	"github.com/wolfman30/hijama-dm-responder/internal/channels/instagram"
	appconfig "github.com/wolfman30/hijama-dm-responder/internal/config"
	"github.com/wolfman30/hijama-dm-responder/internal/conversation"
	"github.com/wolfman30/hijama-dm-responder/internal/leads"
	"github.com/wolfman30/hijama-dm-responder/internal/observability/metrics"
	"github.com/wolfman30/hijama-dm-responder/internal/observability/tracing"
	"github.com/wolfman30/hijama-dm-responder/internal/webchat"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

func main() {
	if err := mainconfig.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting hijama-dm-responder API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(cfg *appconfig.Config, logger *logging.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, cfg.OTLPEndpoint, cfg.TracingServiceName)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	metricsHandler, responderMetrics := setupMetrics()

	backends := bootstrap.NewBackends(cfg, mainconfig.LoadAWSConfig, logger)
	defer backends.Close()

	pipeline, err := bootstrap.BuildPipeline(ctx, cfg, backends, buildDispatchers(cfg, logger), responderMetrics, logger)
	if err != nil {
		return err
	}
	pipeline.Start(ctx)

	igAdapter := instagram.NewAdapter(instagram.AdapterConfig{
		AppSecret:   cfg.InstagramAppSecret,
		VerifyToken: cfg.InstagramVerifyToken,
		Handler:     pipeline.Responder,
		Logger:      logger,
	})

	routerCfg := &router.Config{
		Logger:             logger,
		Instagram:          igAdapter,
		Admin:              conversation.NewAdminHandler(pipeline.Router, pipeline.FAQs, logger),
		LeadsHandler:       leads.NewHandler(pipeline.Leads, logger),
		MetricsHandler:     metricsHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.WebchatOrigins,
		WebhookRatePerSec:  cfg.WebhookRatePerSec,
		WebhookRateBurst:   cfg.WebhookRateBurst,
	}
	if cfg.EnableWebchat {
		routerCfg.Webchat = webchat.NewHandler(pipeline.Responder, logger)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Let accepted webhook batches finish before stopping the relay worker.
	igAdapter.Wait()
	cancel()
	pipeline.Wait()

	logger.Info("server stopped")
	return nil
}

// setupMetrics builds a dedicated registry with runtime collectors and the
// responder metrics.
func setupMetrics() (http.Handler, *metrics.ResponderMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewResponderMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

// buildDispatchers maps platforms to their outbound clients. Without a page
// token Instagram has no dispatcher, so its events are dropped before
// resolution with a "no dispatcher for platform" error log.
func buildDispatchers(cfg *appconfig.Config, logger *logging.Logger) map[conversation.Platform]conversation.Dispatcher {
	dispatchers := make(map[conversation.Platform]conversation.Dispatcher)
	if cfg.InstagramPageAccessToken == "" {
		logger.Warn("INSTAGRAM_PAGE_ACCESS_TOKEN not set; instagram replies are disabled")
		return dispatchers
	}
	client := instagram.NewClient(cfg.InstagramPageAccessToken)
	client.SetGraphAPIBase(cfg.InstagramGraphAPIBase)
	dispatchers[conversation.PlatformInstagram] = client
	return dispatchers
}
