package domain

import (
	"time"
)

// Source identifies the feed that produced a report.
type Source string

const (
	SourceUSGS   Source = "usgs"
	SourceEMSC   Source = "emsc"
	SourceGEOFON Source = "geofon"
)

// KnownSources lists the feeds the service ships adapters for, in default order.
var KnownSources = []Source{SourceUSGS, SourceEMSC, SourceGEOFON}

// Priority ranks how authoritative a source is when two reports describe
// the same earthquake. Unknown sources rank lowest.
func (s Source) Priority() int {
	switch s {
	case SourceEMSC:
		return 3
	case SourceUSGS:
		return 2
	case SourceGEOFON:
		return 1
	default:
		return 0
	}
}

// Raw record keys populated by the feed adapters.
const (
	KeyID        = "id"
	KeySource    = "source"
	KeyTime      = "time"
	KeyLatitude  = "latitude"
	KeyLongitude = "longitude"
	KeyDepth     = "depth"
	KeyMagnitude = "magnitude"
	KeyPlace     = "place"
)

// ExtraSources is the Extra key listing every feed that reported a merged event.
const ExtraSources = "sources"

// RawRecord is one loosely-typed report as produced by a feed adapter. It
// carries the canonical keys above plus any source-specific extras.
type RawRecord map[string]any

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies inside the WGS-84 domain.
func (g Geo) Valid() bool {
	return g.Lat >= -90 && g.Lat <= 90 && g.Lon >= -180 && g.Lon <= 180
}

// Event is the canonical representation of one earthquake report.
type Event struct {
	ID        string         `json:"id"`
	Source    Source         `json:"source"`
	Time      time.Time      `json:"time"`
	Latitude  *float64       `json:"latitude"`
	Longitude *float64       `json:"longitude"`
	Depth     *float64       `json:"depth,omitempty"`
	Magnitude *float64       `json:"magnitude,omitempty"`
	Place     string         `json:"place,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Point returns the event's epicenter. ok is false when either coordinate is
// missing or out of range, which makes the event ineligible for matching and
// radius filtering.
func (e Event) Point() (Geo, bool) {
	if e.Latitude == nil || e.Longitude == nil {
		return Geo{}, false
	}
	g := Geo{Lat: *e.Latitude, Lon: *e.Longitude}
	if !g.Valid() {
		return Geo{}, false
	}
	return g, true
}

// Sources returns the feeds recorded against this event by the merger.
func (e Event) Sources() []string {
	if e.Extra == nil {
		return nil
	}
	switch v := e.Extra[ExtraSources].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if str, ok := s.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// clone returns a copy whose Extra map can be mutated without touching the original.
func (e Event) clone() Event {
	if e.Extra == nil {
		return e
	}
	extra := make(map[string]any, len(e.Extra))
	for k, v := range e.Extra {
		extra[k] = v
	}
	if srcs := e.Sources(); srcs != nil {
		extra[ExtraSources] = append([]string(nil), srcs...)
	}
	e.Extra = extra
	return e
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
