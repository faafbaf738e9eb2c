package domain

import "time"

// SourceItem identifies one fetchable unit listed from an external source.
// The source system remains the source of truth; items are not persisted.
type SourceItem struct {
	// ID is the item identifier within the source (file ID, page ID, URL).
	ID string

	// SourceType identifies the source kind that listed this item.
	SourceType string

	// Kind is a content hint for extractor selection
	// (e.g., "text/markdown", "text/html", "application/pdf").
	Kind string

	// Title is the item name as listed, before extraction.
	Title string

	// ModifiedAt is the source-reported last modification time.
	ModifiedAt time.Time

	// URL is the web-openable location, if the source exposes one.
	URL string

	// Author is the item author, if the source exposes one.
	Author string
}

// RawContent is the fetched payload for a source item, before extraction.
type RawContent struct {
	// Kind is the content kind, possibly refined from the listing
	// (e.g., after a Workspace export).
	Kind string

	// Data is the raw payload.
	Data []byte
}

// SyncRecord is the per-item watermark: the modification time of the item
// as of its last successful ingestion. Watermarks only move forward.
type SyncRecord struct {
	ItemID     string
	ModifiedAt time.Time
}

// NeedsSync reports whether an item must be (re-)ingested given the stored
// watermarks. Items absent from the map, or listed with a strictly newer
// modification time, are included.
func NeedsSync(item SourceItem, watermarks map[string]time.Time) bool {
	last, ok := watermarks[item.ID]
	if !ok {
		return true
	}
	return item.ModifiedAt.After(last)
}
