package driving

import "context"

// ItemStatus classifies the outcome of one item within a sync pass.
type ItemStatus string

const (
	// ItemSynced means the item's chunks were stored and its watermark
	// committed.
	ItemSynced ItemStatus = "synced"

	// ItemSkipped means the item was fetched but had no extractable
	// content; its watermark still advances.
	ItemSkipped ItemStatus = "skipped"

	// ItemFailed means fetch, extraction or storage failed; the
	// watermark does not advance and the item retries next pass.
	ItemFailed ItemStatus = "failed"
)

// ItemResult is the per-item detail of a sync pass.
type ItemResult struct {
	ItemID string
	Title  string
	Status ItemStatus
	Chunks int
	Error  string
}

// SyncSummary reports the outcome of one sync pass over a source.
type SyncSummary struct {
	SourceID string
	Total    int
	Synced   int
	Skipped  int
	Failed   int
	Items    []ItemResult
}

// SyncStatus reports progress of a running sync pass.
type SyncStatus struct {
	SourceID       string
	Running        bool
	ItemsProcessed int
	ErrorCount     int
}

// Ingestor coordinates ingestion for configured sources.
type Ingestor interface {
	// Sync runs one ingestion pass over a source. Item-level failures
	// are isolated into the summary; a pass with failures still commits
	// watermarks for the items that succeeded. Returns
	// domain.ErrSyncInProgress if a pass for the source is running.
	Sync(ctx context.Context, sourceID string) (*SyncSummary, error)

	// SyncAll runs Sync for every configured source, aggregating errors.
	SyncAll(ctx context.Context) error

	// Status reports progress for a source's running pass.
	Status(ctx context.Context, sourceID string) (*SyncStatus, error)
}
