// Command validate checks the integrity of a landed raw object for one
// interval: the object exists at the deterministic path, it parses as
// parquet, and (optionally) its row count matches a fresh fetch of the
// source CSV. It is an operator tool; the ingestion run itself performs
// no validation by design.
//
// Usage:
//
//	ACCESS_KEY=... SECRET_KEY=... go run ./cmd/validate -date 2025-05-01
//	go run ./cmd/validate -date 2025-05-01 -with-source
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/segmentio/parquet-go"

	minioadapter "github.com/couchcryptid/quake-data-ingest/internal/adapter/minio"
	"github.com/couchcryptid/quake-data-ingest/internal/adapter/usgs"
	"github.com/couchcryptid/quake-data-ingest/internal/config"
	"github.com/couchcryptid/quake-data-ingest/internal/domain"
	"github.com/couchcryptid/quake-data-ingest/internal/observability"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	date := flag.String("date", "", "interval start date to validate, YYYY-MM-DD")
	withSource := flag.Bool("with-source", false, "also re-fetch the source CSV and compare row counts")
	flag.Parse()

	if *date == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*date, *withSource); code != 0 {
		os.Exit(code)
	}
}

func run(date string, withSource bool) int {
	interval, err := domain.ParseInterval(date, nextDay(date))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		return 1
	}
	logger := observability.NewLogger(cfg)

	store, err := minioadapter.NewStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	path := domain.ObjectPath(date)

	fmt.Println("=== Raw Object Integrity Validation ===")
	fmt.Printf("Object: s3://%s/%s\n\n", cfg.S3Bucket, path)

	rows, p1 := validateObject(ctx, store, path)
	phases := []*phase{p1}

	if withSource {
		client := usgs.NewClient(cfg.USGSBaseURL, 30*time.Second, logger)
		phases = append(phases, validateSourceParity(ctx, client, interval, rows))
	}

	// Report results.
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Printf("\nObject valid: %d rows.\n", rows)
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateObject checks presence and parquet readability, returning the
// row count for later phases.
func validateObject(ctx context.Context, store *minioadapter.Store, path string) (int64, *phase) {
	p := &phase{name: "Phase 1: Object Presence & Format"}

	info, err := store.StatObject(ctx, path)
	if err != nil {
		p.errorf("stat failed: %v", err)
		return 0, p
	}
	if info.Size == 0 {
		p.errorf("object is empty")
		return 0, p
	}

	obj, err := store.OpenObject(ctx, path)
	if err != nil {
		p.errorf("open failed: %v", err)
		return 0, p
	}
	defer obj.Close()

	pf, err := parquet.OpenFile(obj, info.Size)
	if err != nil {
		p.errorf("not readable as parquet: %v", err)
		return 0, p
	}

	rows := pf.NumRows()
	if rows == 0 {
		p.errorf("parquet file has no rows")
	}
	if len(pf.Schema().Fields()) == 0 {
		p.errorf("parquet file has no columns")
	}
	return rows, p
}

// validateSourceParity re-fetches the source CSV and compares counts.
// The comparison is advisory: the upstream catalog is revised for weeks
// after an event day, so counts can legitimately drift.
func validateSourceParity(ctx context.Context, client *usgs.Client, interval domain.Interval, objectRows int64) *phase {
	p := &phase{name: "Phase 2: Source Parity (row counts)"}

	sourceRows, err := client.CountEvents(ctx, interval)
	if err != nil {
		p.errorf("fetch source: %v", err)
		return p
	}

	if sourceRows != objectRows {
		p.errorf("row count mismatch: object has %d, source now has %d", objectRows, sourceRows)
	}
	return p
}

func nextDay(date string) string {
	d, err := time.Parse(domain.DateFormat, date)
	if err != nil {
		return date // ParseInterval reports the real error
	}
	return d.AddDate(0, 0, 1).Format(domain.DateFormat)
}
