package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/quakehub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func setOrigin(t *testing.T) {
	t.Helper()
	t.Setenv("ORIGIN_LATITUDE", "37.98")
	t.Setenv("ORIGIN_LONGITUDE", "23.72")
}

func TestLoad_Defaults(t *testing.T) {
	setOrigin(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, domain.Geo{Lat: 37.98, Lon: 23.72}, cfg.Origin)
	assert.Equal(t, domain.ModeRadius, cfg.RegionMode)
	assert.Equal(t, 300.0, cfg.RadiusKm)
	assert.Empty(t, cfg.RegionName)
	assert.Equal(t, []domain.Source{domain.SourceUSGS, domain.SourceEMSC, domain.SourceGEOFON}, cfg.Sources)
	assert.Equal(t, 300*time.Second, cfg.UpdateInterval)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SummaryWindow)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "merged-earthquakes", cfg.KafkaTopic)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
	assert.Empty(t, cfg.FeedURLs[domain.SourceUSGS])
}

func TestLoad_CustomEnv(t *testing.T) {
	setOrigin(t)
	t.Setenv("REGION_MODE", "region")
	t.Setenv("REGION_NAME", "Greece")
	t.Setenv("REGIONS_FILE", "/etc/quakehub/regions.yaml")
	t.Setenv("RADIUS_KM", "0")
	t.Setenv("SOURCES", "EMSC, usgs, emsc")
	t.Setenv("UPDATE_INTERVAL", "1m")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("SUMMARY_WINDOW", "168h")
	t.Setenv("EMSC_FEED_URL", "http://localhost:9000/emsc")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "quakes")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, domain.ModeRegion, cfg.RegionMode)
	assert.Equal(t, "Greece", cfg.RegionName)
	assert.Equal(t, "/etc/quakehub/regions.yaml", cfg.RegionsFile)
	assert.Zero(t, cfg.RadiusKm)
	assert.Equal(t, []domain.Source{domain.SourceEMSC, domain.SourceUSGS}, cfg.Sources)
	assert.Equal(t, time.Minute, cfg.UpdateInterval)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 168*time.Hour, cfg.SummaryWindow)
	assert.Equal(t, "http://localhost:9000/emsc", cfg.FeedURLs[domain.SourceEMSC])
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "quakes", cfg.KafkaTopic)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
}

func TestLoad_FilterOptions(t *testing.T) {
	setOrigin(t)
	t.Setenv("RADIUS_KM", "150.5")

	cfg, err := Load()
	require.NoError(t, err)

	opts := cfg.FilterOptions()
	assert.Equal(t, domain.ModeRadius, opts.Mode)
	assert.Equal(t, 150.5, opts.RadiusKm)
	assert.Equal(t, cfg.Origin, opts.Origin)
	assert.Nil(t, opts.Region)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing origin", map[string]string{"ORIGIN_LATITUDE": ""}, "ORIGIN_LATITUDE and ORIGIN_LONGITUDE are required"},
		{"latitude out of range", map[string]string{"ORIGIN_LATITUDE": "91"}, "invalid ORIGIN_LATITUDE"},
		{"longitude not a number", map[string]string{"ORIGIN_LONGITUDE": "east"}, "invalid ORIGIN_LONGITUDE"},
		{"unknown region mode", map[string]string{"REGION_MODE": "polygon"}, "invalid REGION_MODE"},
		{"region mode without name", map[string]string{"REGION_MODE": "region"}, "REGION_NAME is required"},
		{"negative radius", map[string]string{"RADIUS_KM": "-1"}, "invalid RADIUS_KM"},
		{"unknown source", map[string]string{"SOURCES": "usgs,ingv"}, "unknown source"},
		{"no sources", map[string]string{"SOURCES": " , "}, "at least one feed"},
		{"zero interval", map[string]string{"UPDATE_INTERVAL": "0s"}, "invalid UPDATE_INTERVAL"},
		{"bad fetch timeout", map[string]string{"FETCH_TIMEOUT": "soon"}, "invalid FETCH_TIMEOUT"},
		{"bad mapbox timeout", map[string]string{"MAPBOX_TIMEOUT": "-5s"}, "invalid MAPBOX_TIMEOUT"},
		{"mapbox enabled without token", map[string]string{"MAPBOX_ENABLED": "true"}, "MAPBOX_TOKEN is not set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setOrigin(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	setOrigin(t)
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestLoad_InvalidCacheSizeFallsBack(t *testing.T) {
	setOrigin(t)
	t.Setenv("MAPBOX_CACHE_SIZE", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}
