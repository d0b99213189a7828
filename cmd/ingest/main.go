package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacesedan/threatwatch/config"
	"github.com/spacesedan/threatwatch/internal/bootstrap"
	"github.com/spacesedan/threatwatch/internal/ingest"
	"github.com/spacesedan/threatwatch/internal/logging"
	"github.com/spacesedan/threatwatch/internal/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	file := flag.String("file", "", "path of the csv file to ingest")
	classify := flag.Bool("classify", true, "run admitted rows through classification")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: ingest -file <path.csv> [-classify=false]")
		return 1
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.NewRegistry())
	app, err := bootstrap.New(ctx, cfg, m)
	if err != nil {
		slog.Error("[Ingest] Failed to start", slog.String("error", err.Error()))
		return 1
	}
	defer app.Close()

	f, err := os.Open(*file)
	if err != nil {
		slog.Error("[Ingest] Failed to open file", slog.String("file", *file), slog.String("error", err.Error()))
		return 1
	}
	defer f.Close()

	ingestor := ingest.New(app.Service, ingest.WithClassification(*classify), ingest.WithMetrics(m))
	report, err := ingestor.Ingest(ctx, f)
	if err != nil {
		slog.Error("[Ingest] Batch failed", slog.String("file", *file), slog.String("error", err.Error()))
		return 1
	}

	slog.Info("[Ingest] Batch complete",
		slog.Int("added", report.Added),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("invalid", report.Invalid),
		slog.Int("failed", report.Failed),
		slog.Int("unclassified", report.Unclassified),
		slog.Int("threats", report.Threats))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		slog.Error("[Ingest] Failed to write report", slog.String("error", err.Error()))
		return 1
	}
	return 0
}
