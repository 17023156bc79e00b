package domain

import (
	"math"
	"time"
)

// Matching thresholds for treating two reports as the same earthquake.
const (
	MatchWindow         = 60 * time.Second
	MatchRadiusKm       = 10.0
	MatchMagnitudeDelta = 0.3
)

// magnitudeEpsilon absorbs float noise so that 5.0 and 5.3 still count as 0.3 apart.
const magnitudeEpsilon = 1e-9

// SameEvent reports whether a and b describe the same physical earthquake.
// Events without valid coordinates never match. The magnitude criterion only
// applies when both events carry a magnitude.
func SameEvent(a, b Event) bool {
	dt := a.Time.Sub(b.Time)
	if dt < 0 {
		dt = -dt
	}
	if dt > MatchWindow {
		return false
	}

	pa, ok := a.Point()
	if !ok {
		return false
	}
	pb, ok := b.Point()
	if !ok {
		return false
	}
	if Distance(pa, pb) > MatchRadiusKm {
		return false
	}

	if a.Magnitude != nil && b.Magnitude != nil {
		if math.Abs(*a.Magnitude-*b.Magnitude) > MatchMagnitudeDelta+magnitudeEpsilon {
			return false
		}
	}
	return true
}

type mergeEntry struct {
	event   Event
	sources []string
}

// Merge collapses duplicate reports of the same earthquake.
//
// Events are visited in input order and compared against the survivors so
// far; the first survivor that matches wins. A strictly higher priority
// incoming event replaces the survivor, which is removed and the newcomer
// appended at the end, so replacement does not preserve position. Otherwise
// the incoming source is recorded on the survivor and the event is dropped.
//
// Every returned event carries Extra["sources"] as an ordered, deduplicated
// []string in absorption order. The input slice and its Extra maps are not
// modified.
func Merge(events []Event) []Event {
	survivors := make([]*mergeEntry, 0, len(events))

	for _, e := range events {
		idx := -1
		for i, m := range survivors {
			if SameEvent(e, m.event) {
				idx = i
				break
			}
		}

		if idx < 0 {
			survivors = append(survivors, newMergeEntry(e))
			continue
		}

		m := survivors[idx]
		if e.Source.Priority() > m.event.Source.Priority() {
			replacement := newMergeEntry(e)
			replacement.sources = appendUnique([]string{string(m.event.Source)}, replacement.sources...)
			survivors = append(survivors[:idx], survivors[idx+1:]...)
			survivors = append(survivors, replacement)
			continue
		}
		m.sources = appendUnique(m.sources, ownSources(e)...)
	}

	out := make([]Event, len(survivors))
	for i, s := range survivors {
		ev := s.event
		if ev.Extra == nil {
			ev.Extra = make(map[string]any, 1)
		}
		ev.Extra[ExtraSources] = s.sources
		out[i] = ev
	}
	return out
}

func newMergeEntry(e Event) *mergeEntry {
	return &mergeEntry{event: e.clone(), sources: ownSources(e)}
}

// ownSources returns the sources already recorded on e, making sure e's own
// source is among them. The result is a fresh slice.
func ownSources(e Event) []string {
	return appendUnique(appendUnique(nil, e.Sources()...), string(e.Source))
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		seen := false
		for _, d := range dst {
			if d == v {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, v)
		}
	}
	return dst
}
