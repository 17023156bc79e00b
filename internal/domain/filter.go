package domain

import (
	"fmt"
	"slices"
)

// RegionMode selects how FilterAndRank decides whether an event is relevant.
type RegionMode string

const (
	ModeRadius RegionMode = "radius"
	ModeRegion RegionMode = "region"
)

// ParseRegionMode accepts the configuration spellings of a region mode.
func ParseRegionMode(s string) (RegionMode, error) {
	switch s {
	case "", "radius":
		return ModeRadius, nil
	case "region", "named-region":
		return ModeRegion, nil
	default:
		return "", fmt.Errorf("unknown region mode %q", s)
	}
}

// RegionPredicate decides named-region membership for one event.
type RegionPredicate func(Event) bool

// FilterOptions configures FilterAndRank.
type FilterOptions struct {
	Mode     RegionMode
	Origin   Geo
	RadiusKm float64 // <= 0 disables the radius check
	Region   RegionPredicate
}

// FilterAndRank keeps the events relevant to opts and orders them newest
// first. Events with equal times keep their relative order.
//
// In radius mode an event exactly RadiusKm away is kept, and events without
// coordinates are dropped. In region mode the predicate alone decides; a nil
// predicate keeps everything.
func FilterAndRank(events []Event, opts FilterOptions) []Event {
	keep := opts.keeper()

	out := make([]Event, 0, len(events))
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b Event) int {
		return b.Time.Compare(a.Time)
	})
	return out
}

func (o FilterOptions) keeper() func(Event) bool {
	if o.Mode == ModeRegion {
		if o.Region == nil {
			return func(Event) bool { return true }
		}
		return o.Region
	}
	if o.RadiusKm <= 0 {
		return func(Event) bool { return true }
	}
	return func(e Event) bool {
		d, ok := DistanceFrom(o.Origin, e)
		return ok && d <= o.RadiusKm
	}
}
