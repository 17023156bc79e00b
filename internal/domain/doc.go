// Package domain holds the earthquake reconciliation core: the canonical
// event shape, normalization of raw feed records, duplicate merging, and
// region filtering with time ranking.
//
// # Feed Conventions
//
// Each feed adapter emits loosely-typed records carrying the canonical keys
// (id, source, time, latitude, longitude, depth, magnitude, place) plus any
// extras it wants to preserve:
//
//	USGS    GeoJSON summary feed, time in epoch milliseconds, id "usgs_<feature id>".
//	EMSC    FDSN GeoJSON, time in epoch milliseconds or ISO-8601, id "emsc_<eventid>".
//	GEOFON  GeoJSON or a bare list, ISO-8601 origin time, id "geofon_<eventid>".
//
// GeoJSON coordinates are [lon, lat, depth]; the canonical event names them.
// Depth is in kilometers. Timestamps without a zone are taken as UTC.
//
// # Duplicate Detection
//
// Two reports describe the same earthquake when they are at most 60 seconds
// and 10 km apart and, if both carry a magnitude, within 0.3 of each other.
// When duplicates meet, the more authoritative source wins:
//
//	EMSC (3) > USGS (2) > GEOFON (1) > unknown (0)
//
// Ties keep the report seen first. The surviving event lists every feed that
// reported it under Extra["sources"].
package domain
