package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord matches any MalformedRecordError via errors.Is.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrNoDataAvailable signals that every enabled source failed in a cycle.
	ErrNoDataAvailable = errors.New("no data available")
)

// FetchError wraps a feed adapter failure for one source.
type FetchError struct {
	Source Source
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedRecordError describes a raw record that could not be normalized.
type MalformedRecordError struct {
	Index  int
	ID     string
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("malformed record %d (%s): %s: %s", e.Index, e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed record %d: %s: %s", e.Index, e.Field, e.Reason)
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}
