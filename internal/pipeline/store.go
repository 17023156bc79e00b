package pipeline

import (
	"sync/atomic"

	"github.com/couchcryptid/quakehub/internal/domain"
)

// Store holds the most recent snapshot. It has a single writer, the
// refresher, and any number of readers; a snapshot is replaced wholesale so
// readers never observe a partially updated list.
type Store struct {
	current atomic.Pointer[domain.Snapshot]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load returns the current snapshot. ok is false until the first publish.
func (s *Store) Load() (domain.Snapshot, bool) {
	p := s.current.Load()
	if p == nil {
		return domain.Snapshot{}, false
	}
	return *p, true
}

// Publish replaces the current snapshot.
func (s *Store) Publish(snap domain.Snapshot) {
	s.current.Store(&snap)
}
