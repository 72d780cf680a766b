package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// RunIDSource generates identifiers for execution runs.
// Implemented by UUIDv7Source (production) and FixedSource (tests).
type RunIDSource interface {
	NewRunID() string
}

// UUIDv7Source generates time-sortable UUIDv7 run identifiers, so run
// listings sort by creation time without a separate timestamp index.
//
// Stateless and safe for concurrent use.
type UUIDv7Source struct{}

// NewRunID returns a new UUIDv7 as a hyphenated string.
func (UUIDv7Source) NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedSource returns predetermined run IDs for deterministic tests and
// golden-file comparison.
//
// Safe for concurrent use via an internal mutex.
type FixedSource struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedSource creates a source that returns ids in order and panics
// when exhausted, so a test cannot silently reuse an ID.
func NewFixedSource(ids ...string) *FixedSource {
	return &FixedSource{ids: ids}
}

// NewRunID returns the next predetermined ID.
func (f *FixedSource) NewRunID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idx >= len(f.ids) {
		panic(fmt.Sprintf("FixedSource exhausted after %d ids", len(f.ids)))
	}
	id := f.ids[f.idx]
	f.idx++
	return id
}
