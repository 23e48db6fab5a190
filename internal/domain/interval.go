package domain

import (
	"fmt"
	"time"
)

// Storage layout constants. The object path is a pure function of these
// plus the interval start date; changing either rewrites history.
const (
	Layer  = "raw"
	Source = "earthquake"

	// DateFormat is the calendar-date layout used in query parameters
	// and object paths.
	DateFormat = "2006-01-02"
)

// Interval is the scheduler-assigned date range for one run.
// End is exclusive per the upstream query semantics.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval validates that start precedes end.
func NewInterval(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("interval start %s must precede end %s",
			start.Format(DateFormat), end.Format(DateFormat))
	}
	return Interval{Start: start, End: end}, nil
}

// ParseInterval builds an Interval from two YYYY-MM-DD strings.
func ParseInterval(start, end string) (Interval, error) {
	s, err := time.Parse(DateFormat, start)
	if err != nil {
		return Interval{}, fmt.Errorf("parse start date %q: %w", start, err)
	}
	e, err := time.Parse(DateFormat, end)
	if err != nil {
		return Interval{}, fmt.Errorf("parse end date %q: %w", end, err)
	}
	return NewInterval(s, e)
}

// PreviousUTCDay returns the interval covering the most recent complete
// UTC calendar day: [yesterday 00:00, today 00:00). This is the default
// when the invoking scheduler does not pass explicit dates.
func PreviousUTCDay() Interval {
	today := clock.Now().UTC().Truncate(24 * time.Hour)
	return Interval{Start: today.AddDate(0, 0, -1), End: today}
}

// StartDate returns the interval start as a calendar-date string.
func (iv Interval) StartDate() string { return iv.Start.Format(DateFormat) }

// EndDate returns the exclusive interval end as a calendar-date string.
func (iv Interval) EndDate() string { return iv.End.Format(DateFormat) }

// ObjectPath returns the bucket-relative path for the interval's raw
// object. Identical start dates always yield the identical path, so a
// rerun overwrites rather than duplicates.
func ObjectPath(startDate string) string {
	return fmt.Sprintf("%s/%s/%s/%s_00-00-00.gz.parquet", Layer, Source, startDate, startDate)
}

// ObjectURI returns the full s3:// destination for the interval's raw object.
func ObjectURI(bucket, startDate string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, ObjectPath(startDate))
}

// IngestionNotice is the marker published downstream after an interval's
// raw object has landed.
type IngestionNotice struct {
	Layer       string    `json:"layer"`
	Source      string    `json:"source"`
	StartDate   string    `json:"start_date"`
	ObjectPath  string    `json:"object_path"`
	Rows        int64     `json:"rows"`
	CompletedAt time.Time `json:"completed_at"`
}
