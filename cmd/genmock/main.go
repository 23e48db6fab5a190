// Command genmock generates deterministic USGS-style event CSV, either as
// a fixture file or served from a mock FDSN endpoint. It exists so local
// compose stacks and integration tests can run the ingestion task without
// touching the real API.
//
// Usage:
//
//	go run ./cmd/genmock -date 2025-05-01 -count 250 -out data/mock/2025-05-01.csv
//	go run ./cmd/genmock -serve :8089
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/quake-data-ingest/internal/domain"
)

var header = []string{
	"time", "latitude", "longitude", "depth", "mag", "magType",
	"nst", "gap", "dmin", "rms", "net", "id", "updated", "place", "type",
}

// places sampled from real catalog output; indexes are picked
// deterministically per row.
var places = []string{
	"7 km NW of The Geysers, CA",
	"5 km N of Anchorage, Alaska",
	"9 km E of Pāhala, Hawaii",
	"22 km SSE of Mina, Nevada",
	"103 km NNE of Vieques, Puerto Rico",
	"41 km W of Petrolia, CA",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	date := flag.String("date", "", "event date, YYYY-MM-DD")
	count := flag.Int("count", 250, "number of events to generate")
	out := flag.String("out", "", "output path (default stdout)")
	serve := flag.String("serve", "", "serve a mock FDSN endpoint on this address instead of writing a file")
	flag.Parse()

	if *serve != "" {
		return serveMock(*serve, *count)
	}

	if *date == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -date")
	}
	day, err := time.Parse(domain.DateFormat, *date)
	if err != nil {
		return fmt.Errorf("parse -date: %w", err)
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := writeEvents(w, []time.Time{day}, *count); err != nil {
		return err
	}
	if *out != "" {
		log.Printf("%s: %d events written to %s", *date, *count, *out)
	}
	return nil
}

// writeEvents emits a CSV with count events per day. The generator is
// seeded from each date so repeated runs produce identical fixtures.
func writeEvents(w io.Writer, days []time.Time, count int) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return err
	}

	for _, day := range days {
		rng := rand.New(rand.NewSource(day.Unix()))

		// Spread events across the day in order, like the real catalog.
		step := 24 * time.Hour / time.Duration(count+1)
		for i := 0; i < count; i++ {
			at := day.Add(time.Duration(i+1) * step)
			lat := -60 + rng.Float64()*120
			lon := -180 + rng.Float64()*360
			depth := rng.Float64() * 70
			mag := 0.5 + rng.Float64()*5.5

			row := []string{
				at.UTC().Format("2006-01-02T15:04:05.000Z"),
				strconv.FormatFloat(lat, 'f', 4, 64),
				strconv.FormatFloat(lon, 'f', 4, 64),
				strconv.FormatFloat(depth, 'f', 2, 64),
				strconv.FormatFloat(mag, 'f', 2, 64),
				"ml",
				strconv.Itoa(5 + rng.Intn(60)),
				strconv.Itoa(30 + rng.Intn(240)),
				strconv.FormatFloat(rng.Float64(), 'f', 3, 64),
				strconv.FormatFloat(rng.Float64(), 'f', 2, 64),
				"mk",
				fmt.Sprintf("mk%s%05d", day.Format("20060102"), i),
				at.UTC().Add(10 * time.Minute).Format("2006-01-02T15:04:05.000Z"),
				places[rng.Intn(len(places))],
				"earthquake",
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// serveMock answers FDSN-style queries with generated CSV, count events
// per day in the requested window.
func serveMock(addr string, count int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /fdsnws/event/1/query", func(w http.ResponseWriter, r *http.Request) {
		iv, err := domain.ParseInterval(r.URL.Query().Get("starttime"), r.URL.Query().Get("endtime"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var days []time.Time
		for day := iv.Start; day.Before(iv.End); day = day.AddDate(0, 0, 1) {
			days = append(days, day)
		}

		w.Header().Set("Content-Type", "text/csv")
		if err := writeEvents(w, days, count); err != nil {
			log.Printf("write events: %v", err)
		}
	})

	log.Printf("mock FDSN endpoint listening on %s (%d events/day)", addr, count)
	return http.ListenAndServe(addr, mux)
}
