//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/quakehub/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSmoke_ReverseGeocode_Land(t *testing.T) {
	c := smokeClient(t)

	// Heraklion, Crete
	result, err := c.ReverseGeocode(context.Background(), 35.3387, 25.1442)
	require.NoError(t, err)

	assert.Contains(t, result.FormattedAddress, "Greece")
	assert.NotEmpty(t, result.PlaceName)
}

func TestSmoke_ReverseGeocode_Ocean(t *testing.T) {
	c := smokeClient(t)

	// South Pacific, far from land.
	result, err := c.ReverseGeocode(context.Background(), -40.0, -130.0)
	require.NoError(t, err)
	assert.Empty(t, result.FormattedAddress)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedGeocoder(c, 10, observability.NewMetricsForTesting())

	r1, err := cached.ReverseGeocode(context.Background(), 37.9838, 23.7275)
	require.NoError(t, err)
	assert.Contains(t, r1.FormattedAddress, "Greece")

	r2, err := cached.ReverseGeocode(context.Background(), 37.9838, 23.7275)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
