package feed

import (
	"fmt"

	"github.com/couchcryptid/quakehub/internal/domain"
)

// ParseUSGS parses the USGS GeoJSON summary feed. Times are epoch milliseconds.
func ParseUSGS(data []byte) ([]domain.RawRecord, error) {
	features, err := decodeFeatures(data)
	if err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(features))
	for i, raw := range features {
		var f feature
		if err := decode(raw, &f); err != nil {
			return nil, fmt.Errorf("decode feature %d: %w", i, err)
		}
		props := f.Properties

		rec := newRecord(domain.SourceUSGS, idString(f.ID), props["time"],
			f.Geometry.coordinate(1), f.Geometry.coordinate(0), f.Geometry.coordinate(2))
		setOptional(rec, domain.KeyMagnitude, props["mag"])
		setOptional(rec, domain.KeyPlace, pickString(props, "place"))
		setOptional(rec, ExtraFeltReports, props["felt"])
		rec[ExtraRaw] = raw
		records = append(records, rec)
	}
	return records, nil
}
