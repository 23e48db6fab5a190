// Command ingest runs one raw ingestion for a scheduler-assigned date
// interval. The invoking scheduler is expected to trigger it daily, pass
// the interval via flags, serialize runs, and retry on non-zero exit.
//
// Usage:
//
//	ingest -start 2025-05-01 -end 2025-05-02
//
// With no flags the previous complete UTC day is ingested.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	duckdbadapter "github.com/couchcryptid/quake-data-ingest/internal/adapter/duckdb"
	httpadapter "github.com/couchcryptid/quake-data-ingest/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-data-ingest/internal/adapter/kafka"
	"github.com/couchcryptid/quake-data-ingest/internal/config"
	"github.com/couchcryptid/quake-data-ingest/internal/domain"
	"github.com/couchcryptid/quake-data-ingest/internal/ingest"
	"github.com/couchcryptid/quake-data-ingest/internal/observability"
)

func main() {
	startFlag := flag.String("start", "", "interval start date, YYYY-MM-DD (default: previous UTC day)")
	endFlag := flag.String("end", "", "interval end date, YYYY-MM-DD, exclusive")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	interval, err := resolveInterval(*startFlag, *endFlag)
	if err != nil {
		logger.Error("invalid interval", "error", err)
		os.Exit(1)
	}

	settings := duckdbadapter.S3Settings{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
	}
	openSession := func(ctx context.Context) (ingest.Session, error) {
		return duckdbadapter.OpenSession(ctx, settings, logger)
	}

	// Landed-object notices are feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED.
	var notifier ingest.Notifier
	if cfg.KafkaEnabled {
		n := kafkaadapter.NewNotifier(cfg, logger)
		defer n.Close() //nolint:errcheck // process exits right after
		notifier = n
		logger.Info("ingestion notices enabled", "topic", cfg.KafkaTopic)
	}

	task := ingest.New(openSession, notifier, cfg, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	// Probe/metrics server, only when the platform asks for one.
	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, task, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := task.Run(ctx, interval)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		cancel()
	}

	// Fail loud: the scheduler's retry policy is the sole recovery mechanism.
	if runErr != nil {
		logger.Error("run failed", "error", runErr)
		os.Exit(1)
	}
}

// resolveInterval turns the flag pair into an Interval, defaulting to the
// previous complete UTC day when both flags are absent.
func resolveInterval(start, end string) (domain.Interval, error) {
	if start == "" && end == "" {
		return domain.PreviousUTCDay(), nil
	}
	if start == "" || end == "" {
		return domain.Interval{}, errors.New("-start and -end must be passed together")
	}
	return domain.ParseInterval(start, end)
}
