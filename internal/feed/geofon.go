package feed

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/quakehub/internal/domain"
)

// ParseGEOFON parses the GEOFON event list. The payload is either a GeoJSON
// feature collection or a bare JSON array of flat event objects; in the
// latter case coordinates come from lat/lon/depth properties.
func ParseGEOFON(data []byte) ([]domain.RawRecord, error) {
	var items []json.RawMessage
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := decode(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode event list: %w", err)
		}
	} else {
		features, err := decodeFeatures(data)
		if err != nil {
			return nil, err
		}
		items = features
	}

	records := make([]domain.RawRecord, 0, len(items))
	for i, raw := range items {
		var f feature
		if err := decode(raw, &f); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", i, err)
		}
		props := f.Properties
		if props == nil {
			if err := decode(raw, &props); err != nil {
				return nil, fmt.Errorf("decode event %d: %w", i, err)
			}
		}

		lat, lon, depth := props["lat"], props["lon"], props["depth"]
		if f.Geometry != nil {
			lat, lon, depth = f.Geometry.coordinate(1), f.Geometry.coordinate(0), f.Geometry.coordinate(2)
		}

		id := pickString(props, "eventid", "id")
		if id == "" {
			id = idString(f.ID)
		}

		rec := newRecord(domain.SourceGEOFON, id, pickValue(props, "time", "origintime"), lat, lon, depth)
		setOptional(rec, domain.KeyMagnitude, props["mag"])
		setOptional(rec, domain.KeyPlace, pickString(props, "region", "flynn_region"))
		rec[ExtraRaw] = raw
		records = append(records, rec)
	}
	return records, nil
}
