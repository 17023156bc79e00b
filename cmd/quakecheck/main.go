// Command quakecheck reconciles saved feed payloads offline using the same
// domain code as the service, and prints the resulting event list.
//
// Usage:
//
//	go run ./cmd/quakecheck \
//	  -usgs testdata/all_hour.geojson \
//	  -emsc testdata/emsc.json \
//	  -lat 37.0 -lon 37.0 -radius 500 \
//	  -now 2023-02-06T12:00:00Z \
//	  -out merged.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/quakehub/internal/domain"
	"github.com/couchcryptid/quakehub/internal/feed"
	"github.com/couchcryptid/quakehub/internal/region"
	"github.com/jonboulle/clockwork"
)

type options struct {
	files       map[domain.Source]string
	filter      domain.FilterOptions
	regionName  string
	regionsFile string
	window      time.Duration
	now         string
	out         string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	opts := options{files: map[domain.Source]string{}}
	usgs := flag.String("usgs", "", "USGS GeoJSON payload file")
	emsc := flag.String("emsc", "", "EMSC GeoJSON payload file")
	geofon := flag.String("geofon", "", "GEOFON payload file")
	lat := flag.Float64("lat", 0, "origin latitude")
	lon := flag.Float64("lon", 0, "origin longitude")
	flag.Float64Var(&opts.filter.RadiusKm, "radius", 0, "radius in km around the origin; 0 keeps everything")
	flag.StringVar(&opts.regionName, "region", "", "named region; switches to region mode")
	flag.StringVar(&opts.regionsFile, "regions-file", "", "YAML region catalog")
	flag.DurationVar(&opts.window, "window", 24*time.Hour, "summary window")
	flag.StringVar(&opts.now, "now", "", "RFC3339 reference time for the summary window")
	flag.StringVar(&opts.out, "out", "", "write merged events to this file instead of stdout")
	flag.Parse()

	for src, path := range map[domain.Source]string{
		domain.SourceUSGS:   *usgs,
		domain.SourceEMSC:   *emsc,
		domain.SourceGEOFON: *geofon,
	} {
		if path != "" {
			opts.files[src] = path
		}
	}
	if len(opts.files) == 0 {
		flag.Usage()
		return fmt.Errorf("at least one of -usgs, -emsc, -geofon is required")
	}
	opts.filter.Origin = domain.Geo{Lat: *lat, Lon: *lon}
	if !opts.filter.Origin.Valid() {
		return fmt.Errorf("origin %v is out of range", opts.filter.Origin)
	}

	if opts.now != "" {
		now, err := time.Parse(time.RFC3339, opts.now)
		if err != nil {
			return fmt.Errorf("parse -now: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(now))
		defer domain.SetClock(nil)
	}

	return reconcile(opts)
}

func reconcile(opts options) error {
	var raws []domain.RawRecord
	for _, src := range domain.KnownSources {
		path, ok := opts.files[src]
		if !ok {
			continue
		}
		recs, err := parseFile(src, path)
		if err != nil {
			return err
		}
		log.Printf("%s: %d records", src, len(recs))
		raws = append(raws, recs...)
	}

	events, errs := domain.Normalize(raws)
	for _, err := range errs {
		log.Printf("skipped: %v", err)
	}
	merged := domain.Merge(events)

	if opts.regionName != "" {
		var catalog *region.Catalog
		if opts.regionsFile != "" {
			c, err := region.Load(opts.regionsFile)
			if err != nil {
				return err
			}
			catalog = c
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		matcher := region.NewMatcher(opts.regionName, catalog, nil, logger)
		opts.filter.Mode = domain.ModeRegion
		opts.filter.Region = matcher.Predicate(context.Background())
	}
	ranked := domain.FilterAndRank(merged, opts.filter)

	if err := writeJSON(opts.out, ranked); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	printStats(len(raws), len(errs), len(events)-len(merged), ranked, domain.Summarize(ranked, opts.window))
	return nil
}

func parseFile(src domain.Source, path string) ([]domain.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s payload: %w", src, err)
	}
	parse, err := feed.Parser(src)
	if err != nil {
		return nil, err
	}
	recs, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s payload: %w", src, err)
	}
	return recs, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func printStats(records, malformed, duplicates int, events []domain.Event, summary domain.Summary) {
	w := os.Stderr
	fmt.Fprintf(w, "\n=== Reconciliation ===\n")
	fmt.Fprintf(w, "records:    %d\n", records)
	fmt.Fprintf(w, "malformed:  %d\n", malformed)
	fmt.Fprintf(w, "duplicates: %d\n", duplicates)
	fmt.Fprintf(w, "events:     %d\n", len(events))

	bySource := map[string]int{}
	for _, e := range events {
		bySource[string(e.Source)]++
	}
	keys := make([]string, 0, len(bySource))
	for k := range bySource {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "\n=== Survivors by source ===\n")
	for _, k := range keys {
		fmt.Fprintf(w, "  %-8s %d\n", k, bySource[k])
	}

	fmt.Fprintf(w, "\n=== Summary (%s) ===\n", summary.Window)
	fmt.Fprintf(w, "in window: %d\n", summary.Count)
	if summary.Latest != nil {
		fmt.Fprintf(w, "latest:    %s %s\n", summary.Latest.ID, summary.Latest.Time.Format(time.RFC3339))
	}
	if summary.Strongest != nil {
		mag := "n/a"
		if summary.Strongest.Magnitude != nil {
			mag = fmt.Sprintf("M%.1f", *summary.Strongest.Magnitude)
		}
		fmt.Fprintf(w, "strongest: %s %s\n", summary.Strongest.ID, mag)
	}
}
