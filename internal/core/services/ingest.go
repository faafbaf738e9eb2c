package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/chunker"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driving"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driving.Ingestor = (*Ingestor)(nil)

// DefaultFanOut is the default number of concurrent item ingestions per
// sync pass.
const DefaultFanOut = 5

// DefaultFetchTimeout bounds a single item fetch.
const DefaultFetchTimeout = 60 * time.Second

// Ingestor coordinates ingestion passes: it lists a source's items,
// computes the delta against the stored watermarks and runs the per-item
// pipeline (fetch, extract, chunk, store, commit) with bounded fan-out.
type Ingestor struct {
	sources   driven.SourceProvider
	syncStore driven.SyncStateStore
	vectors   driven.VectorStore
	factory   driven.ConnectorFactory
	extract   driven.ExtractorRegistry
	chunker   *chunker.Chunker

	fanOut       int
	fetchTimeout time.Duration

	mu     sync.RWMutex
	active map[string]*driving.SyncStatus
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithFanOut sets the per-pass concurrency limit.
func WithFanOut(n int) IngestorOption {
	return func(i *Ingestor) {
		if n > 0 {
			i.fanOut = n
		}
	}
}

// WithFetchTimeout sets the per-item fetch timeout.
func WithFetchTimeout(d time.Duration) IngestorOption {
	return func(i *Ingestor) {
		if d > 0 {
			i.fetchTimeout = d
		}
	}
}

// NewIngestor creates an ingestion coordinator.
func NewIngestor(
	sources driven.SourceProvider,
	syncStore driven.SyncStateStore,
	vectors driven.VectorStore,
	factory driven.ConnectorFactory,
	extract driven.ExtractorRegistry,
	ch *chunker.Chunker,
	opts ...IngestorOption,
) *Ingestor {
	ing := &Ingestor{
		sources:      sources,
		syncStore:    syncStore,
		vectors:      vectors,
		factory:      factory,
		extract:      extract,
		chunker:      ch,
		fanOut:       DefaultFanOut,
		fetchTimeout: DefaultFetchTimeout,
		active:       make(map[string]*driving.SyncStatus),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Sync runs one ingestion pass over a source.
func (i *Ingestor) Sync(ctx context.Context, sourceID string) (*driving.SyncSummary, error) {
	source, err := i.sources.Source(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}

	if !i.beginSync(sourceID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSyncInProgress, sourceID)
	}
	defer i.endSync(sourceID)

	connector, err := i.factory.Create(ctx, *source)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	if err := connector.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate connector: %w", err)
	}

	watermarks, err := i.syncStore.Watermarks(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSyncState, err)
	}

	items, err := connector.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	var delta []domain.SourceItem
	for _, item := range items {
		if domain.NeedsSync(item, watermarks) {
			delta = append(delta, item)
		}
	}

	logger.Info("Sync %s: %d items listed, %d need ingestion", sourceID, len(items), len(delta))

	results := make([]driving.ItemResult, len(delta))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.fanOut)
	for idx, item := range delta {
		g.Go(func() error {
			results[idx] = i.ingestItem(gctx, source, connector, item)
			i.bumpStatus(sourceID, results[idx].Status == driving.ItemFailed)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &driving.SyncSummary{
		SourceID: sourceID,
		Total:    len(delta),
		Items:    results,
	}
	for _, r := range results {
		switch r.Status {
		case driving.ItemSynced:
			summary.Synced++
		case driving.ItemSkipped:
			summary.Skipped++
		case driving.ItemFailed:
			summary.Failed++
		}
	}

	logger.Info("Sync %s complete: %d synced, %d skipped, %d failed",
		sourceID, summary.Synced, summary.Skipped, summary.Failed)
	return summary, nil
}

// SyncAll runs Sync for every configured source. Item-level failures stay
// in the summaries; only pass-level failures are aggregated here.
func (i *Ingestor) SyncAll(ctx context.Context) error {
	sources, err := i.sources.Sources(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	var errs []error
	for _, source := range sources {
		if _, err := i.Sync(ctx, source.ID); err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", source.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Status reports progress for a source's running pass.
func (i *Ingestor) Status(_ context.Context, sourceID string) (*driving.SyncStatus, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if status, ok := i.active[sourceID]; ok {
		copied := *status
		return &copied, nil
	}
	return &driving.SyncStatus{SourceID: sourceID}, nil
}

// ingestItem runs the per-item pipeline. Failures are folded into the
// returned result, never propagated, so one bad item cannot abort the
// batch.
func (i *Ingestor) ingestItem(
	ctx context.Context,
	source *domain.Source,
	connector driven.SourceConnector,
	item domain.SourceItem,
) driving.ItemResult {
	result := driving.ItemResult{ItemID: item.ID, Title: item.Title}

	fetchCtx, cancel := context.WithTimeout(ctx, i.fetchTimeout)
	raw, err := connector.FetchContent(fetchCtx, item.ID)
	cancel()
	if err != nil {
		logger.Debug("Fetch %s/%s failed: %v", source.ID, item.ID, err)
		result.Status = driving.ItemFailed
		result.Error = err.Error()
		return result
	}

	text, err := i.extract.Extract(ctx, raw)
	switch {
	case errors.Is(err, domain.ErrUnsupportedKind), errors.Is(err, domain.ErrNoContent):
		return i.skipItem(ctx, source.ID, item, result, err)
	case err != nil:
		result.Status = driving.ItemFailed
		result.Error = err.Error()
		return result
	}

	docID := domain.DocumentID(connector.Type(), item.ID)
	doc := domain.Document{
		ID:         docID,
		SourceType: connector.Type(),
		SourceID:   source.ID,
		Title:      item.Title,
		URL:        item.URL,
		Author:     item.Author,
		Content:    text,
		CreatedAt:  item.ModifiedAt,
	}

	chunks := i.chunker.Split(docID, text, doc.ChunkMetadata())
	if len(chunks) == 0 {
		return i.skipItem(ctx, source.ID, item, result, domain.ErrNoContent)
	}

	// Re-ingestion supersedes wholesale: old chunks go first so a
	// shrunken document leaves no stale tail behind.
	if err := i.vectors.DeleteDocument(ctx, docID); err != nil {
		result.Status = driving.ItemFailed
		result.Error = fmt.Sprintf("delete old chunks: %v", err)
		return result
	}
	if err := i.vectors.Add(ctx, chunks); err != nil {
		result.Status = driving.ItemFailed
		result.Error = fmt.Sprintf("store chunks: %v", err)
		return result
	}

	// The watermark moves only after the chunks are durably stored. A
	// commit failure leaves the item due again next pass, which is safe
	// because re-ingestion is idempotent.
	if err := i.syncStore.Commit(ctx, source.ID, item.ID, item.ModifiedAt); err != nil {
		result.Status = driving.ItemFailed
		result.Error = fmt.Sprintf("commit watermark: %v", err)
		return result
	}

	result.Status = driving.ItemSynced
	result.Chunks = len(chunks)
	return result
}

// skipItem records an empty or unsupported item. The watermark still
// advances so the item is not refetched every pass.
func (i *Ingestor) skipItem(
	ctx context.Context,
	sourceID string,
	item domain.SourceItem,
	result driving.ItemResult,
	reason error,
) driving.ItemResult {
	logger.Debug("Skipping %s/%s: %v", sourceID, item.ID, reason)
	result.Status = driving.ItemSkipped
	result.Error = reason.Error()
	if err := i.syncStore.Commit(ctx, sourceID, item.ID, item.ModifiedAt); err != nil {
		result.Status = driving.ItemFailed
		result.Error = fmt.Sprintf("commit watermark: %v", err)
	}
	return result
}

// beginSync claims the per-source in-flight slot.
func (i *Ingestor) beginSync(sourceID string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, running := i.active[sourceID]; running {
		return false
	}
	i.active[sourceID] = &driving.SyncStatus{SourceID: sourceID, Running: true}
	return true
}

func (i *Ingestor) endSync(sourceID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.active, sourceID)
}

func (i *Ingestor) bumpStatus(sourceID string, failed bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	status, ok := i.active[sourceID]
	if !ok {
		return
	}
	status.ItemsProcessed++
	if failed {
		status.ErrorCount++
	}
}
