package domain

import "time"

// SnapshotVersion is bumped when the persisted layout changes incompatibly.
const SnapshotVersion = 1

// Snapshot is the last checkpointed projection of a journey for one product.
// There is one slot per product and each save overwrites it.
type Snapshot struct {
	Version       int            `json:"version"`
	Product       string         `json:"product"`
	CurrentStepID string         `json:"current_step_id"`
	SavedAt       time.Time      `json:"saved_at"`
	Fields        map[string]any `json:"fields"`
}
