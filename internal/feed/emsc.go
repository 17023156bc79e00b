package feed

import (
	"fmt"

	"github.com/couchcryptid/quakehub/internal/domain"
)

// ParseEMSC parses the EMSC FDSN GeoJSON feed. Times arrive either as epoch
// milliseconds or as ISO-8601 strings.
func ParseEMSC(data []byte) ([]domain.RawRecord, error) {
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

		id := pickString(props, "eventid", "unid")
		if id == "" {
			id = idString(f.ID)
		}

		rec := newRecord(domain.SourceEMSC, id, props["time"],
			f.Geometry.coordinate(1), f.Geometry.coordinate(0), f.Geometry.coordinate(2))
		setOptional(rec, domain.KeyMagnitude, props["mag"])
		setOptional(rec, domain.KeyPlace, pickString(props, "flynn_region", "region"))
		setOptional(rec, ExtraFeltReports, props["felt"])
		rec[ExtraRaw] = raw
		records = append(records, rec)
	}
	return records, nil
}
