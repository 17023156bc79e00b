// Package region decides named-region membership for merged events.
package region

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/quakehub/internal/domain"
	"gopkg.in/yaml.v3"
)

// BBox is a latitude/longitude rectangle. MinLon greater than MaxLon means
// the box crosses the antimeridian.
type BBox struct {
	MinLat float64 `yaml:"min_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLat float64 `yaml:"max_lat"`
	MaxLon float64 `yaml:"max_lon"`
}

// Contains reports whether p lies inside the box, edges included.
func (b BBox) Contains(p domain.Geo) bool {
	if p.Lat < b.MinLat || p.Lat > b.MaxLat {
		return false
	}
	if b.MinLon <= b.MaxLon {
		return p.Lon >= b.MinLon && p.Lon <= b.MaxLon
	}
	return p.Lon >= b.MinLon || p.Lon <= b.MaxLon
}

// Circle is a centre point with a radius in kilometers.
type Circle struct {
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
	RadiusKm float64 `yaml:"radius_km"`
}

// Contains reports whether p lies within the radius, boundary included.
func (c Circle) Contains(p domain.Geo) bool {
	return domain.DistanceKm(c.Lat, c.Lon, p.Lat, p.Lon) <= c.RadiusKm
}

// Area is one named region from the catalog.
type Area struct {
	Name     string   `yaml:"name"`
	Aliases  []string `yaml:"aliases"`
	Keywords []string `yaml:"keywords"` // extra place-text matches
	BBox     *BBox    `yaml:"bbox"`
	Circle   *Circle  `yaml:"circle"`
}

// Contains reports whether p lies inside the area's geometry. An area with no
// geometry contains nothing.
func (a Area) Contains(p domain.Geo) bool {
	switch {
	case a.BBox != nil:
		return a.BBox.Contains(p)
	case a.Circle != nil:
		return a.Circle.Contains(p)
	default:
		return false
	}
}

// HasGeometry reports whether the area defines a bbox or circle.
func (a Area) HasGeometry() bool {
	return a.BBox != nil || a.Circle != nil
}

// Terms returns the lowercased place-text terms for the area.
func (a Area) Terms() []string {
	var terms []string
	for _, t := range append(append([]string{a.Name}, a.Aliases...), a.Keywords...) {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// Catalog is the set of named regions loaded from YAML.
type Catalog struct {
	Regions []Area `yaml:"regions"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read region catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse region catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool)
	for i, a := range c.Regions {
		name := strings.ToLower(strings.TrimSpace(a.Name))
		if name == "" {
			return fmt.Errorf("region %d: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("region %q: duplicate name", a.Name)
		}
		seen[name] = true

		if a.BBox != nil && a.Circle != nil {
			return fmt.Errorf("region %q: bbox and circle are mutually exclusive", a.Name)
		}
		if b := a.BBox; b != nil {
			if b.MinLat > b.MaxLat {
				return fmt.Errorf("region %q: min_lat must not exceed max_lat", a.Name)
			}
			if !(domain.Geo{Lat: b.MinLat, Lon: b.MinLon}).Valid() || !(domain.Geo{Lat: b.MaxLat, Lon: b.MaxLon}).Valid() {
				return fmt.Errorf("region %q: bbox outside coordinate range", a.Name)
			}
		}
		if ci := a.Circle; ci != nil {
			if !(domain.Geo{Lat: ci.Lat, Lon: ci.Lon}).Valid() {
				return fmt.Errorf("region %q: circle centre outside coordinate range", a.Name)
			}
			if ci.RadiusKm <= 0 {
				return fmt.Errorf("region %q: radius_km must be positive", a.Name)
			}
		}
	}
	return nil
}

// ErrUnknownRegion is returned by Lookup misses.
var ErrUnknownRegion = errors.New("unknown region")

// Lookup finds an area by name or alias, ignoring case.
func (c *Catalog) Lookup(name string) (Area, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	if c != nil {
		for _, a := range c.Regions {
			if strings.ToLower(strings.TrimSpace(a.Name)) == want {
				return a, nil
			}
			for _, alias := range a.Aliases {
				if strings.ToLower(strings.TrimSpace(alias)) == want {
					return a, nil
				}
			}
		}
	}
	return Area{}, fmt.Errorf("%w: %s", ErrUnknownRegion, name)
}
