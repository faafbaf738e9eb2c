package driven

import (
	"context"
	"time"
)

// SyncStateStore persists per-item watermarks, one keyed map per source.
// Watermarks survive process restarts and only move forward.
//
// Commit must be called strictly after the item's chunks are durably
// stored; concurrent commits for different items are safe (per-key
// last-writer-wins, acceptable since watermarks are monotonic).
type SyncStateStore interface {
	// Watermarks returns the full item_id -> last_synced_modified_at map
	// for a source. A source never synced yields an empty map.
	Watermarks(ctx context.Context, sourceID string) (map[string]time.Time, error)

	// Commit advances the watermark for one item.
	Commit(ctx context.Context, sourceID, itemID string, modifiedAt time.Time) error

	// Forget drops the watermark for one item (used when a source item
	// disappeared and its document was removed).
	Forget(ctx context.Context, sourceID, itemID string) error

	// Reset drops all watermarks for a source, forcing a full re-ingest.
	Reset(ctx context.Context, sourceID string) error
}
