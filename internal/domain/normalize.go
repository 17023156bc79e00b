package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// canonicalKeys are consumed by Normalize; every other key lands in Extra.
var canonicalKeys = map[string]struct{}{
	KeyID:        {},
	KeySource:    {},
	KeyTime:      {},
	KeyLatitude:  {},
	KeyLongitude: {},
	KeyDepth:     {},
	KeyMagnitude: {},
	KeyPlace:     {},
}

// Normalize reshapes raw feed records into canonical events, preserving input
// order. Records missing a required key are skipped and reported as
// *MalformedRecordError; the caller decides whether to log or propagate them.
func Normalize(raws []RawRecord) ([]Event, []error) {
	events := make([]Event, 0, len(raws))
	var errs []error
	for i, raw := range raws {
		event, err := NormalizeRecord(raw)
		if err != nil {
			if mre, ok := err.(*MalformedRecordError); ok {
				mre.Index = i
			}
			errs = append(errs, err)
			continue
		}
		events = append(events, event)
	}
	return events, errs
}

// NormalizeRecord converts a single raw record.
//
// Required keys are id, source, time, latitude and longitude. A latitude or
// longitude key that is present but null yields an event without coordinates;
// a missing key is malformed.
func NormalizeRecord(raw RawRecord) (Event, error) {
	id, reason := requiredString(raw, KeyID)
	if reason != "" {
		return Event{}, &MalformedRecordError{Field: KeyID, Reason: reason}
	}
	malformed := func(field, reason string) error {
		return &MalformedRecordError{ID: id, Field: field, Reason: reason}
	}

	src, reason := requiredString(raw, KeySource)
	if reason != "" {
		return Event{}, malformed(KeySource, reason)
	}

	tv, ok := raw[KeyTime]
	if !ok || tv == nil {
		return Event{}, malformed(KeyTime, "missing")
	}
	t, err := ParseTime(tv)
	if err != nil {
		return Event{}, malformed(KeyTime, err.Error())
	}

	event := Event{
		ID:     id,
		Source: Source(strings.ToLower(src)),
		Time:   t,
	}

	for _, key := range []string{KeyLatitude, KeyLongitude} {
		v, ok := raw[key]
		if !ok {
			return Event{}, malformed(key, "missing")
		}
		f, present, err := optionalFloat(v)
		if err != nil {
			return Event{}, malformed(key, err.Error())
		}
		if !present {
			continue
		}
		if key == KeyLatitude {
			event.Latitude = &f
		} else {
			event.Longitude = &f
		}
	}

	if f, present, err := optionalFloat(raw[KeyDepth]); err != nil {
		return Event{}, malformed(KeyDepth, err.Error())
	} else if present {
		event.Depth = &f
	}
	if f, present, err := optionalFloat(raw[KeyMagnitude]); err != nil {
		return Event{}, malformed(KeyMagnitude, err.Error())
	} else if present {
		event.Magnitude = &f
	}
	if p, ok := raw[KeyPlace].(string); ok {
		event.Place = strings.TrimSpace(p)
	}

	for k, v := range raw {
		if _, canonical := canonicalKeys[k]; canonical {
			continue
		}
		if event.Extra == nil {
			event.Extra = make(map[string]any)
		}
		event.Extra[k] = v
	}

	return event, nil
}

// requiredString returns the trimmed string under key, or a non-empty reason
// describing why it is unusable.
func requiredString(raw RawRecord, key string) (string, string) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", "missing"
	}
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case Source:
		s = string(x)
	case fmt.Stringer:
		s = x.String()
	default:
		return "", fmt.Sprintf("unexpected type %T", v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "empty"
	}
	return s, ""
}

// optionalFloat converts a numeric JSON-ish value. present is false for nil.
func optionalFloat(v any) (f float64, present bool, err error) {
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		f = x
	case *float64:
		if x == nil {
			return 0, false, nil
		}
		f = *x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		f, err = x.Float64()
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false, nil
		}
		f, err = strconv.ParseFloat(s, 64)
	default:
		return 0, false, fmt.Errorf("unexpected type %T", v)
	}
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("not a finite number")
	}
	return f, true, nil
}

// isoLayouts are tried in order for string timestamps. Layouts without a zone
// are interpreted as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Epoch-millisecond bounds of the years time.Time can encode as RFC 3339.
var (
	minEpochMillis = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	maxEpochMillis = time.Date(9999, 12, 31, 23, 59, 59, 999000000, time.UTC).UnixMilli()
)

// ParseTime converts a feed timestamp into UTC. Numbers are epoch
// milliseconds; strings are ISO-8601.
func ParseTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, fmt.Errorf("zero time")
		}
		return x.UTC(), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, fmt.Errorf("empty time")
		}
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unsupported time: %s", s)
	default:
		ms, present, err := optionalFloat(v)
		if err != nil {
			return time.Time{}, err
		}
		if !present {
			return time.Time{}, fmt.Errorf("missing time")
		}
		if ms < float64(minEpochMillis) || ms > float64(maxEpochMillis) {
			return time.Time{}, fmt.Errorf("epoch milliseconds out of range: %g", ms)
		}
		return time.UnixMilli(int64(ms)).UTC(), nil
	}
}
