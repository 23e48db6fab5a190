//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segmentio/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"

	duckdbadapter "github.com/couchcryptid/quake-data-ingest/internal/adapter/duckdb"
	minioadapter "github.com/couchcryptid/quake-data-ingest/internal/adapter/minio"
	"github.com/couchcryptid/quake-data-ingest/internal/config"
	"github.com/couchcryptid/quake-data-ingest/internal/domain"
	"github.com/couchcryptid/quake-data-ingest/internal/ingest"
	"github.com/couchcryptid/quake-data-ingest/internal/observability"
)

const testBucket = "test-prod"

// eventCSV is a realistic slice of FDSN csv output: one header, four events.
const eventCSV = `time,latitude,longitude,depth,mag,magType,net,id,updated,place,type
2025-05-01T00:12:03.040Z,38.8232,-122.7782,1.92,0.87,md,nc,nc75012345,2025-05-01T00:15:00.000Z,"7 km NW of The Geysers, CA",earthquake
2025-05-01T01:44:10.120Z,61.4963,-149.9722,31.5,1.90,ml,ak,ak0255abcdef,2025-05-01T01:50:00.000Z,"5 km N of Anchorage, Alaska",earthquake
2025-05-01T04:02:59.610Z,19.1821,-155.4745,2.99,2.05,md,hv,hv74123456,2025-05-01T04:10:00.000Z,"9 km E of Pāhala, Hawaii",earthquake
2025-05-01T22:51:33.900Z,35.7021,-117.5538,7.81,1.12,ml,ci,ci41234567,2025-05-01T23:00:00.000Z,"14 km SW of Searles Valley, CA",earthquake
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startMinio runs a MinIO container and returns its endpoint plus the
// root credentials.
func startMinio(ctx context.Context, t *testing.T) (endpoint, accessKey, secretKey string) {
	t.Helper()

	container, err := tcminio.Run(ctx, "minio/minio:RELEASE.2024-01-16T16-07-38Z")
	require.NoError(t, err, "start minio container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err = container.ConnectionString(ctx)
	require.NoError(t, err, "minio connection string")

	return endpoint, container.Username, container.Password
}

// startMockFDSN serves the canned CSV for any query, or the given status
// code when non-zero.
func startMockFDSN(t *testing.T, failStatus int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if failStatus != 0 {
			http.Error(w, "upstream unavailable", failStatus)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(eventCSV)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testSetup(ctx context.Context, t *testing.T, baseURL, endpoint, accessKey, secretKey string) (*ingest.Task, *minioadapter.Store) {
	t.Helper()

	cfg := &config.Config{
		S3Endpoint:  endpoint,
		S3AccessKey: accessKey,
		S3SecretKey: secretKey,
		S3Bucket:    testBucket,
		USGSBaseURL: baseURL,
	}

	store, err := minioadapter.NewStore(cfg, discardLogger())
	require.NoError(t, err)
	require.NoError(t, store.EnsureBucket(ctx))

	settings := duckdbadapter.S3Settings{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	}
	open := func(ctx context.Context) (ingest.Session, error) {
		return duckdbadapter.OpenSession(ctx, settings, discardLogger())
	}

	task := ingest.New(open, nil, cfg, discardLogger(), observability.NewMetricsForTesting())
	return task, store
}

func mustInterval(t *testing.T) domain.Interval {
	t.Helper()
	iv, err := domain.ParseInterval("2025-05-01", "2025-05-02")
	require.NoError(t, err)
	return iv
}

// readParquetRows downloads the object and returns its parquet row count.
func readParquetRows(ctx context.Context, t *testing.T, store *minioadapter.Store, path string) int64 {
	t.Helper()

	info, err := store.StatObject(ctx, path)
	require.NoError(t, err)
	require.Positive(t, info.Size)

	obj, err := store.OpenObject(ctx, path)
	require.NoError(t, err)
	defer obj.Close()

	pf, err := parquet.OpenFile(obj, info.Size)
	require.NoError(t, err, "landed object must be readable parquet")
	return pf.NumRows()
}

// TestIngestEndToEnd runs the full task against real MinIO: remote CSV in,
// parquet object out at the deterministic path.
func TestIngestEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	endpoint, accessKey, secretKey := startMinio(ctx, t)
	mock := startMockFDSN(t, 0)

	task, store := testSetup(ctx, t, mock.URL, endpoint, accessKey, secretKey)

	require.NoError(t, task.Run(ctx, mustInterval(t)))

	path := domain.ObjectPath("2025-05-01")
	exists, err := store.ObjectExists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists, "object must land at the deterministic path")

	assert.Equal(t, int64(4), readParquetRows(ctx, t, store, path), "all source rows copied")
}

// TestIngestRerunOverwrites verifies idempotency at the storage layer: a
// second run for the same interval overwrites the same object and creates
// no duplicates.
func TestIngestRerunOverwrites(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	endpoint, accessKey, secretKey := startMinio(ctx, t)
	mock := startMockFDSN(t, 0)

	task, store := testSetup(ctx, t, mock.URL, endpoint, accessKey, secretKey)
	iv := mustInterval(t)

	require.NoError(t, task.Run(ctx, iv))
	require.NoError(t, task.Run(ctx, iv))

	keys, err := store.ListObjects(ctx, "raw/earthquake/2025-05-01")
	require.NoError(t, err)
	require.Len(t, keys, 1, "rerun must overwrite, not duplicate")
	assert.Equal(t, domain.ObjectPath("2025-05-01"), keys[0])
}

// TestIngestUpstreamFailure verifies the fail-loud contract: a non-2xx
// upstream response fails the run and leaves nothing at the target path.
func TestIngestUpstreamFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	endpoint, accessKey, secretKey := startMinio(ctx, t)
	mock := startMockFDSN(t, http.StatusBadGateway)

	task, store := testSetup(ctx, t, mock.URL, endpoint, accessKey, secretKey)

	require.Error(t, task.Run(ctx, mustInterval(t)))

	exists, err := store.ObjectExists(ctx, domain.ObjectPath("2025-05-01"))
	require.NoError(t, err)
	assert.False(t, exists, "failed run must not create the target object")
}

// TestIngestBadCredentials verifies that a storage-auth failure surfaces
// as a run error and leaves no partial object behind.
func TestIngestBadCredentials(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	endpoint, accessKey, secretKey := startMinio(ctx, t)
	mock := startMockFDSN(t, 0)

	// Store client keeps the real credentials so it can inspect the bucket.
	_, store := testSetup(ctx, t, mock.URL, endpoint, accessKey, secretKey)

	badCfg := &config.Config{
		S3Endpoint:  endpoint,
		S3AccessKey: "wrong",
		S3SecretKey: "wrong",
		S3Bucket:    testBucket,
		USGSBaseURL: mock.URL,
	}
	settings := duckdbadapter.S3Settings{
		Endpoint:  badCfg.S3Endpoint,
		AccessKey: badCfg.S3AccessKey,
		SecretKey: badCfg.S3SecretKey,
	}
	open := func(ctx context.Context) (ingest.Session, error) {
		return duckdbadapter.OpenSession(ctx, settings, discardLogger())
	}
	task := ingest.New(open, nil, badCfg, discardLogger(), observability.NewMetricsForTesting())

	require.Error(t, task.Run(ctx, mustInterval(t)))

	exists, err := store.ObjectExists(ctx, domain.ObjectPath("2025-05-01"))
	require.NoError(t, err)
	assert.False(t, exists, "auth failure must not leave a partial object")
}
