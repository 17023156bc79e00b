// Package feed implements the per-source adapters that fetch earthquake
// reports and reshape them into raw records for the domain normalizer.
package feed

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/couchcryptid/quakehub/internal/domain"
)

// Public endpoints used when no URL is configured.
const (
	DefaultUSGSURL   = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_hour.geojson"
	DefaultEMSCURL   = "https://www.seismicportal.eu/fdsnws/event/1/query?format=geojson&limit=200"
	DefaultGEOFONURL = "https://geofon.gfz-potsdam.de/eqinfo/list.json"
)

// maxPayloadBytes caps how much of a feed response is read.
const maxPayloadBytes = 32 << 20

// Adapter fetches the current reports of one feed.
type Adapter interface {
	Source() domain.Source
	Fetch(ctx context.Context) ([]domain.RawRecord, error)
}

// ParseFunc converts a feed payload into raw records.
type ParseFunc func(data []byte) ([]domain.RawRecord, error)

// HTTPError is returned for non-2xx feed responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

// DefaultURL returns the public endpoint for a known source.
func DefaultURL(src domain.Source) string {
	switch src {
	case domain.SourceUSGS:
		return DefaultUSGSURL
	case domain.SourceEMSC:
		return DefaultEMSCURL
	case domain.SourceGEOFON:
		return DefaultGEOFONURL
	default:
		return ""
	}
}

// Parser returns the payload parser for a known source.
func Parser(src domain.Source) (ParseFunc, error) {
	switch src {
	case domain.SourceUSGS:
		return ParseUSGS, nil
	case domain.SourceEMSC:
		return ParseEMSC, nil
	case domain.SourceGEOFON:
		return ParseGEOFON, nil
	default:
		return nil, fmt.Errorf("unknown source: %s", src)
	}
}

// NewHTTPClient returns a client tuned for polling small JSON feeds. The
// per-request deadline comes from the caller's context.
func NewHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Transport: tr}
}

// HTTPAdapter fetches a JSON feed over HTTP and parses it with the source's parser.
type HTTPAdapter struct {
	source domain.Source
	url    string
	client *http.Client
	parse  ParseFunc
}

// New creates the adapter for src. An empty url selects the public endpoint.
func New(src domain.Source, url string, client *http.Client) (*HTTPAdapter, error) {
	parse, err := Parser(src)
	if err != nil {
		return nil, err
	}
	if url == "" {
		url = DefaultURL(src)
	}
	if client == nil {
		client = NewHTTPClient()
	}
	return &HTTPAdapter{source: src, url: url, client: client, parse: parse}, nil
}

func (a *HTTPAdapter) Source() domain.Source { return a.source }

// Fetch downloads and parses the feed. Transport failures, non-2xx
// responses and unparsable payloads are all returned as errors.
func (a *HTTPAdapter) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	data, err := getJSON(ctx, a.client, a.url)
	if err != nil {
		return nil, err
	}
	records, err := a.parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s payload: %w", a.source, err)
	}
	return records, nil
}

func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "quakehub/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
