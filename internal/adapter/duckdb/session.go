// Package duckdb provides the ephemeral analytical session used to copy
// the remote CSV feed into object storage. Each run opens an in-memory
// database, configures S3 connectivity over httpfs, executes a single
// COPY statement, and closes. No state survives between runs.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// S3Settings holds object-storage connectivity for a session. Credentials
// arrive from config injection and live only for the session's lifetime.
type S3Settings struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Session wraps one in-memory DuckDB connection with S3 access configured.
type Session struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSession opens and configures an ephemeral session. On any
// configuration failure the underlying connection is closed before
// returning.
func OpenSession(ctx context.Context, settings S3Settings, logger *slog.Logger) (*Session, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Session{db: db, logger: logger}
	if err := s.configure(ctx, settings); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// configure applies the session settings one statement at a time. httpfs
// ships with the driver but still needs INSTALL/LOAD on a fresh database.
func (s *Session) configure(ctx context.Context, settings S3Settings) error {
	for _, stmt := range configureStatements(settings) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("configure session: %s: %w", redact(stmt), err)
		}
	}
	return nil
}

// CopyCSVToParquet reads the remote CSV with schema inference and writes
// it, unmodified, to the destination object in compressed columnar form.
// The write is atomic at the object level: a failed copy leaves nothing
// at the destination. Returns the number of rows copied, best-effort.
func (s *Session) CopyCSVToParquet(ctx context.Context, sourceURL, destURI string) (int64, error) {
	res, err := s.db.ExecContext(ctx, copyStatement(sourceURL, destURI))
	if err != nil {
		return 0, fmt.Errorf("copy %s to %s: %w", sourceURL, destURI, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		s.logger.Debug("row count unavailable for copy", "error", err)
		return 0, nil
	}
	return rows, nil
}

// Close releases the session.
func (s *Session) Close() error {
	return s.db.Close()
}

// configureStatements returns the per-session setup in execution order.
func configureStatements(settings S3Settings) []string {
	return []string{
		"SET TIMEZONE='UTC'",
		"INSTALL httpfs",
		"LOAD httpfs",
		"SET s3_url_style='path'",
		fmt.Sprintf("SET s3_endpoint='%s'", escapeSQL(settings.Endpoint)),
		fmt.Sprintf("SET s3_access_key_id='%s'", escapeSQL(settings.AccessKey)),
		fmt.Sprintf("SET s3_secret_access_key='%s'", escapeSQL(settings.SecretKey)),
		fmt.Sprintf("SET s3_use_ssl=%t", settings.UseSSL),
	}
}

// copyStatement builds the single-statement fetch-and-load. read_csv_auto
// infers the schema; the SELECT * keeps the rows untouched.
func copyStatement(sourceURL, destURI string) string {
	return fmt.Sprintf(
		"COPY (SELECT * FROM read_csv_auto('%s')) TO '%s'",
		escapeSQL(sourceURL), escapeSQL(destURI),
	)
}

// escapeSQL doubles single quotes for safe embedding in a string literal.
// Dates and URLs are already in a safe character set; this guards the
// injected credential strings.
func escapeSQL(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

// redact masks the value portion of credential SET statements for error
// messages and logs.
func redact(stmt string) string {
	for _, key := range []string{"s3_access_key_id", "s3_secret_access_key"} {
		if strings.Contains(stmt, key) {
			return fmt.Sprintf("SET %s='***'", key)
		}
	}
	return stmt
}
