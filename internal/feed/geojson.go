package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/couchcryptid/quakehub/internal/domain"
)

// Extra keys added by the adapters.
const (
	ExtraRaw         = "raw"
	ExtraFeltReports = "felt_reports"
)

type featureCollection struct {
	Features []json.RawMessage `json:"features"`
}

type feature struct {
	ID         any            `json:"id"`
	Geometry   *geometry      `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geometry struct {
	Coordinates []any `json:"coordinates"`
}

// coordinate returns the i-th position value, or nil when absent.
func (g *geometry) coordinate(i int) any {
	if g == nil || i >= len(g.Coordinates) {
		return nil
	}
	return g.Coordinates[i]
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func decodeFeatures(data []byte) ([]json.RawMessage, error) {
	var fc featureCollection
	if err := decode(data, &fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	return fc.Features, nil
}

// pickString returns the first non-empty string-like value among keys.
func pickString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// pickValue returns the first non-nil value among keys.
func pickValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func idString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	default:
		return ""
	}
}

// newRecord builds the common part of a raw record. Keys whose value could
// not be determined are left out so the normalizer rejects the record.
func newRecord(src domain.Source, nativeID string, t any, lat, lon, depth any) domain.RawRecord {
	rec := domain.RawRecord{
		domain.KeySource:    string(src),
		domain.KeyLatitude:  lat,
		domain.KeyLongitude: lon,
		domain.KeyDepth:     depth,
	}
	if nativeID != "" {
		rec[domain.KeyID] = string(src) + "_" + nativeID
	}
	if t != nil {
		rec[domain.KeyTime] = t
	}
	return rec
}

func setOptional(rec domain.RawRecord, key string, v any) {
	if v == nil {
		return
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return
	}
	rec[key] = v
}
