package region

import (
	"context"
	"log/slog"
	"strings"

	"github.com/couchcryptid/quakehub/internal/domain"
)

// Matcher decides whether an event belongs to the configured region.
//
// An event with valid coordinates is judged by the catalog geometry when the
// region has one. Otherwise the event's place text is searched for the
// region's name, aliases and keywords, and as a last resort the epicenter is
// reverse geocoded and the resulting address searched the same way.
type Matcher struct {
	name     string
	area     *Area
	terms    []string
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewMatcher builds a matcher for name. catalog and geocoder are optional.
func NewMatcher(name string, catalog *Catalog, geocoder domain.Geocoder, logger *slog.Logger) *Matcher {
	m := &Matcher{name: name, geocoder: geocoder, logger: logger}

	if area, err := catalog.Lookup(name); err == nil {
		m.area = &area
		m.terms = area.Terms()
	} else {
		m.terms = Area{Name: name}.Terms()
	}
	return m
}

// Name returns the configured region name.
func (m *Matcher) Name() string { return m.name }

// Match reports whether e belongs to the region.
func (m *Matcher) Match(ctx context.Context, e domain.Event) bool {
	p, hasPoint := e.Point()
	if hasPoint && m.area != nil && m.area.HasGeometry() {
		return m.area.Contains(p)
	}

	if m.containsTerm(e.Place) {
		return true
	}

	if !hasPoint || m.geocoder == nil {
		return false
	}
	result, err := m.geocoder.ReverseGeocode(ctx, p.Lat, p.Lon)
	if err != nil {
		m.logger.Warn("reverse geocode failed", "event_id", e.ID, "error", err)
		return false
	}
	return m.containsTerm(result.FormattedAddress)
}

// Predicate binds Match to ctx for use as a domain.RegionPredicate.
func (m *Matcher) Predicate(ctx context.Context) domain.RegionPredicate {
	return func(e domain.Event) bool { return m.Match(ctx, e) }
}

func (m *Matcher) containsTerm(text string) bool {
	if text == "" {
		return false
	}
	text = strings.ToLower(text)
	for _, t := range m.terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
