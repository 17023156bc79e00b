package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterAndRank_Radius(t *testing.T) {
	origin := Geo{Lat: 0, Lon: 0}
	radius := DistanceKm(0, 0, 1, 0)

	events := []Event{
		quake("on-boundary", SourceUSGS, 0, 1, 0, nil),
		quake("just-outside", SourceUSGS, 0, 1.0001, 0, nil),
		quake("inside", SourceUSGS, 0, 0.5, 0.5, nil),
		{ID: "no-coords", Source: SourceUSGS, Time: mergeBase},
	}

	out := FilterAndRank(events, FilterOptions{Mode: ModeRadius, Origin: origin, RadiusKm: radius})

	assert.Equal(t, []string{"on-boundary", "inside"}, ids(out))
}

func TestFilterAndRank_AntipodalEventWithinGlobeRadius(t *testing.T) {
	events := []Event{quake("antipode", SourceUSGS, 0, 10, 0, nil)}

	out := FilterAndRank(events, FilterOptions{Mode: ModeRadius, Origin: Geo{Lat: -10, Lon: 180}, RadiusKm: 30000})

	assert.Equal(t, []string{"antipode"}, ids(out))
}

func TestFilterAndRank_ZeroRadiusKeepsAll(t *testing.T) {
	events := []Event{
		quake("far", SourceUSGS, 0, 60, 60, nil),
		{ID: "no-coords", Source: SourceUSGS, Time: mergeBase},
	}

	out := FilterAndRank(events, FilterOptions{Mode: ModeRadius, RadiusKm: 0})

	assert.Len(t, out, 2)
}

func TestFilterAndRank_Region(t *testing.T) {
	events := []Event{
		{ID: "a", Time: mergeBase, Place: "CRETE, GREECE"},
		{ID: "b", Time: mergeBase, Place: "SOUTHERN ITALY"},
		{ID: "c", Time: mergeBase, Place: "DODECANESE ISLANDS, GREECE"},
	}
	greece := func(e Event) bool { return strings.Contains(e.Place, "GREECE") }

	out := FilterAndRank(events, FilterOptions{Mode: ModeRegion, Region: greece})
	assert.Equal(t, []string{"a", "c"}, ids(out))

	out = FilterAndRank(events, FilterOptions{Mode: ModeRegion})
	assert.Len(t, out, 3, "nil predicate keeps everything")
}

func TestFilterAndRank_Ranking(t *testing.T) {
	events := []Event{
		{ID: "t3", Time: mergeBase},
		{ID: "t1-first", Time: mergeBase.Add(2 * time.Hour)},
		{ID: "t2", Time: mergeBase.Add(time.Hour)},
		{ID: "t1-second", Time: mergeBase.Add(2 * time.Hour)},
	}

	out := FilterAndRank(events, FilterOptions{Mode: ModeRadius})

	assert.Equal(t, []string{"t1-first", "t1-second", "t2", "t3"}, ids(out))
}

func TestFilterAndRank_DoesNotReorderInput(t *testing.T) {
	events := []Event{
		{ID: "old", Time: mergeBase},
		{ID: "new", Time: mergeBase.Add(time.Minute)},
	}

	FilterAndRank(events, FilterOptions{})

	assert.Equal(t, []string{"old", "new"}, ids(events))
}

func TestParseRegionMode(t *testing.T) {
	for in, want := range map[string]RegionMode{
		"":             ModeRadius,
		"radius":       ModeRadius,
		"region":       ModeRegion,
		"named-region": ModeRegion,
	} {
		got, err := ParseRegionMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRegionMode("polygon")
	assert.Error(t, err)
}
