package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/spacesedan/threatwatch/config"
	"github.com/spacesedan/threatwatch/internal/api"
	"github.com/spacesedan/threatwatch/internal/bootstrap"
	"github.com/spacesedan/threatwatch/internal/logging"
	"github.com/spacesedan/threatwatch/internal/metrics"
	"github.com/spacesedan/threatwatch/internal/monitoring"
)

const shutdownTimeout = 15 * time.Second

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("[Main] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	app, err := bootstrap.New(ctx, cfg, m)
	if err != nil {
		slog.Error("[Main] Failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer app.Close()

	status := &monitoring.ClassifierStatus{}
	go monitoring.MonitorClassifierHealth(ctx, app.Classifier, cfg.HealthcheckInterval, status, m)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewHandler(app.Service, status, m), m)
	server := api.NewServer(router, cfg.HTTPPort)

	go func() {
		slog.Info("[Main] HTTP server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[Main] HTTP server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("[Main] Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("[Main] Graceful shutdown failed", slog.String("error", err.Error()))
	}
}
