// Package ingest implements the raw ingestion task: one interval in, one
// object out. There is no loop, no retry, and no partial-write cleanup
// here; a failed run returns its error and the external scheduler owns
// recovery.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quake-data-ingest/internal/adapter/usgs"
	"github.com/couchcryptid/quake-data-ingest/internal/config"
	"github.com/couchcryptid/quake-data-ingest/internal/domain"
	"github.com/couchcryptid/quake-data-ingest/internal/observability"
)

// Session is one ephemeral analytical connection that can execute the
// fetch-and-load statement.
type Session interface {
	CopyCSVToParquet(ctx context.Context, sourceURL, destURI string) (int64, error)
	Close() error
}

// SessionOpener creates a configured Session for a single run.
type SessionOpener func(ctx context.Context) (Session, error)

// Notifier publishes a marker after a successful load.
type Notifier interface {
	NotifyIngested(ctx context.Context, notice domain.IngestionNotice) error
}

// Task executes the compute-interval, fetch, convert, upload pipeline.
type Task struct {
	openSession SessionOpener
	notifier    Notifier // nil when the notifier is disabled
	baseURL     string
	bucket      string
	logger      *slog.Logger
	metrics     *observability.Metrics
	succeeded   atomic.Bool
}

// New creates a Task. Pass a nil notifier to disable landing notices.
func New(open SessionOpener, notifier Notifier, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Task {
	return &Task{
		openSession: open,
		notifier:    notifier,
		baseURL:     cfg.USGSBaseURL,
		bucket:      cfg.S3Bucket,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once the process has completed a run,
// or an error describing why it has not.
func (t *Task) CheckReadiness(_ context.Context) error {
	if !t.succeeded.Load() {
		return errors.New("no successful ingestion run yet")
	}
	return nil
}

// Run ingests one interval. The session lives exactly as long as the run;
// it is released on every path out, including copy failure.
func (t *Task) Run(ctx context.Context, iv domain.Interval) error {
	start := time.Now()
	startDate := iv.StartDate()

	t.logger.Info("💻 start load", "start_date", startDate, "end_date", iv.EndDate())

	sourceURL := usgs.QueryURL(t.baseURL, iv)
	destURI := domain.ObjectURI(t.bucket, startDate)

	rows, err := t.copyWithSession(ctx, sourceURL, destURI)
	if err != nil {
		t.metrics.Runs.WithLabelValues("failure").Inc()
		return fmt.Errorf("ingest interval %s/%s: %w", startDate, iv.EndDate(), err)
	}

	t.metrics.Runs.WithLabelValues("success").Inc()
	t.metrics.RowsIngested.Add(float64(rows))
	t.metrics.RunDuration.Observe(time.Since(start).Seconds())
	t.metrics.LastSuccess.SetToCurrentTime()
	t.succeeded.Store(true)

	t.notify(ctx, startDate, rows)

	t.logger.Info("✅ load succeeded", "start_date", startDate, "rows", rows,
		"duration", time.Since(start).Round(time.Millisecond).String())
	return nil
}

// copyWithSession scopes the session acquisition to the copy statement.
func (t *Task) copyWithSession(ctx context.Context, sourceURL, destURI string) (int64, error) {
	session, err := t.openSession(ctx)
	if err != nil {
		return 0, fmt.Errorf("open session: %w", err)
	}
	defer session.Close() //nolint:errcheck // nothing to do with a close failure after copy

	return session.CopyCSVToParquet(ctx, sourceURL, destURI)
}

// notify publishes the landed-object notice. The object is already
// durable at this point, so a notify failure is logged and swallowed
// rather than failing the run and triggering a redundant re-ingest.
func (t *Task) notify(ctx context.Context, startDate string, rows int64) {
	if t.notifier == nil {
		return
	}

	notice := domain.IngestionNotice{
		Layer:       domain.Layer,
		Source:      domain.Source,
		StartDate:   startDate,
		ObjectPath:  domain.ObjectPath(startDate),
		Rows:        rows,
		CompletedAt: time.Now().UTC(),
	}
	if err := t.notifier.NotifyIngested(ctx, notice); err != nil {
		t.logger.Warn("ingestion notice failed", "error", err, "start_date", startDate)
	}
}
