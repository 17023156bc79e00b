package domain

import "time"

// Summary is what the presentation layer derives from one snapshot.
type Summary struct {
	Latest    *Event        `json:"latest"`
	Strongest *Event        `json:"strongest"`
	Count     int           `json:"count"`
	Window    time.Duration `json:"-"`
}

// Summarize computes the most recent event overall plus the strongest event
// and event count within the trailing window ending now. An event without a
// magnitude counts as magnitude 0; ties go to the earlier position in events.
func Summarize(events []Event, window time.Duration) Summary {
	s := Summary{Window: window}
	cutoff := clock.Now().Add(-window)

	var strongest float64
	for i := range events {
		e := &events[i]
		if s.Latest == nil || e.Time.After(s.Latest.Time) {
			s.Latest = e
		}
		if e.Time.Before(cutoff) {
			continue
		}
		s.Count++
		mag := 0.0
		if e.Magnitude != nil {
			mag = *e.Magnitude
		}
		if s.Strongest == nil || mag > strongest {
			strongest = mag
			s.Strongest = e
		}
	}
	return s
}
