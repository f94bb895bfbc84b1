package main

import (
	"context"
	stderrs "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/halytel/cdr-ingest/pkg/cdr"
	"github.com/halytel/cdr-ingest/pkg/config"
	"github.com/halytel/cdr-ingest/pkg/emitter"
	"github.com/halytel/cdr-ingest/pkg/health"
	"github.com/halytel/cdr-ingest/pkg/metrics"
	"github.com/halytel/cdr-ingest/pkg/processor"
	"github.com/halytel/cdr-ingest/pkg/watcher"
)

func main() {
	logger := log.NewWithOptions(os.Stdout, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Level:           log.InfoLevel,
		TimeFormat:      time.Kitchen,
	})

	envs, err := config.LoadConfig(true)
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	if level, parseErr := log.ParseLevel(envs.LogLevel); parseErr == nil {
		logger.SetLevel(level)
	}
	logger.Info("Watching for CDR files", "path", envs.WatchDirectoryPath)

	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	validator := cdr.NewValidator(envs.MaxFileSizeBytes, envs.AllowedPrefixes)
	webhook := emitter.New(logger.With("component", "emitter"), recorder, envs.WebhookBaseURL, envs.WebhookPath)
	pipeline := processor.New(logger.With("component", "processor"), recorder, validator, webhook)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	directoryWatcher, err := watcher.New(logger.With("component", "watcher"), pipeline, envs.WatchDirectoryPath)
	if err != nil {
		logger.Fatal("Failed to create directory watcher", "error", err)
	}
	if err := directoryWatcher.Start(ctx); err != nil {
		logger.Fatal("Failed to start directory watcher", "error", err)
	}

	if len(envs.HealthCheckURLs) > 0 {
		pinger := health.NewPinger(logger.With("component", "health"), recorder, envs.HealthCheckURLs, envs.HealthCheckInterval)
		go pinger.Run(ctx)
	}

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: envs.HTTPAddr, Handler: router}
	go func() {
		logger.Info("HTTP server listening", "addr", envs.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !stderrs.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := directoryWatcher.Stop(); err != nil {
		logger.Error("Failed to stop directory watcher", "error", err)
	}
}
