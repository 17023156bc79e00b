package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/quakehub/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Region selection.
	Origin      domain.Geo
	RegionMode  domain.RegionMode
	RadiusKm    float64
	RegionName  string
	RegionsFile string

	// Feeds, in concatenation order.
	Sources        []domain.Source
	FeedURLs       map[domain.Source]string
	UpdateInterval time.Duration
	FetchTimeout   time.Duration
	SummaryWindow  time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Snapshot publishing; disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Mapbox reverse geocoding for region mode.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// FilterOptions returns the domain filter settings for this configuration.
// The region predicate is attached by the caller.
func (c *Config) FilterOptions() domain.FilterOptions {
	return domain.FilterOptions{
		Mode:     c.RegionMode,
		Origin:   c.Origin,
		RadiusKm: c.RadiusKm,
	}
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	origin, err := parseOrigin()
	if err != nil {
		return nil, err
	}

	mode, err := domain.ParseRegionMode(sharedcfg.EnvOrDefault("REGION_MODE", string(domain.ModeRadius)))
	if err != nil {
		return nil, fmt.Errorf("invalid REGION_MODE: %w", err)
	}

	radius, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("RADIUS_KM", "300"), 64)
	if err != nil || radius < 0 {
		return nil, errors.New("invalid RADIUS_KM")
	}

	sources, err := parseSources(sharedcfg.EnvOrDefault("SOURCES", "usgs,emsc,geofon"))
	if err != nil {
		return nil, err
	}

	updateInterval, err := parsePositiveDuration("UPDATE_INTERVAL", "300s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	summaryWindow, err := parsePositiveDuration("SUMMARY_WINDOW", "24h")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		Origin:      origin,
		RegionMode:  mode,
		RadiusKm:    radius,
		RegionName:  strings.TrimSpace(os.Getenv("REGION_NAME")),
		RegionsFile: os.Getenv("REGIONS_FILE"),

		Sources: sources,
		FeedURLs: map[domain.Source]string{
			domain.SourceUSGS:   os.Getenv("USGS_FEED_URL"),
			domain.SourceEMSC:   os.Getenv("EMSC_FEED_URL"),
			domain.SourceGEOFON: os.Getenv("GEOFON_FEED_URL"),
		},
		UpdateInterval: updateInterval,
		FetchTimeout:   fetchTimeout,
		SummaryWindow:  summaryWindow,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "merged-earthquakes"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if cfg.RegionMode == domain.ModeRegion && cfg.RegionName == "" {
		return nil, errors.New("REGION_NAME is required when REGION_MODE is region")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parseOrigin() (domain.Geo, error) {
	latStr, lonStr := os.Getenv("ORIGIN_LATITUDE"), os.Getenv("ORIGIN_LONGITUDE")
	if latStr == "" || lonStr == "" {
		return domain.Geo{}, errors.New("ORIGIN_LATITUDE and ORIGIN_LONGITUDE are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return domain.Geo{}, errors.New("invalid ORIGIN_LATITUDE")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return domain.Geo{}, errors.New("invalid ORIGIN_LONGITUDE")
	}
	return domain.Geo{Lat: lat, Lon: lon}, nil
}

// parseSources splits a comma-separated source list, keeping the given order
// and dropping duplicates.
func parseSources(s string) ([]domain.Source, error) {
	var out []domain.Source
	seen := make(map[domain.Source]bool)
	for _, part := range strings.Split(s, ",") {
		src := domain.Source(strings.ToLower(strings.TrimSpace(part)))
		if src == "" || seen[src] {
			continue
		}
		if src.Priority() == 0 {
			return nil, fmt.Errorf("unknown source %q in SOURCES", src)
		}
		seen[src] = true
		out = append(out, src)
	}
	if len(out) == 0 {
		return nil, errors.New("SOURCES must enable at least one feed")
	}
	return out, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
