package domain

import "time"

// Snapshot is the published result of one refresh cycle. Events are ranked
// newest first and must be treated as read-only by consumers.
type Snapshot struct {
	CycleID     string    `json:"cycle_id"`
	RefreshedAt time.Time `json:"refreshed_at"`
	Events      []Event   `json:"events"`
}
