// Package memory provides in-memory store implementations. They back unit
// tests and ephemeral runs; durable deployments use the sqlite package.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Ensure SyncStateStore implements the interface.
var _ driven.SyncStateStore = (*SyncStateStore)(nil)

// SyncStateStore is an in-memory implementation of driven.SyncStateStore.
type SyncStateStore struct {
	mu sync.RWMutex
	// sourceID -> itemID -> watermark
	records map[string]map[string]time.Time
}

// NewSyncStateStore creates a new in-memory sync state store.
func NewSyncStateStore() *SyncStateStore {
	return &SyncStateStore{
		records: make(map[string]map[string]time.Time),
	}
}

// Watermarks returns a copy of the watermark map for a source.
func (s *SyncStateStore) Watermarks(_ context.Context, sourceID string) (map[string]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]time.Time, len(s.records[sourceID]))
	for id, ts := range s.records[sourceID] {
		out[id] = ts
	}
	return out, nil
}

// Commit advances the watermark for one item.
func (s *SyncStateStore) Commit(_ context.Context, sourceID, itemID string, modifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[sourceID] == nil {
		s.records[sourceID] = make(map[string]time.Time)
	}
	// Watermarks only move forward.
	if prev, ok := s.records[sourceID][itemID]; ok && prev.After(modifiedAt) {
		return nil
	}
	s.records[sourceID][itemID] = modifiedAt
	return nil
}

// Forget drops the watermark for one item.
func (s *SyncStateStore) Forget(_ context.Context, sourceID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records[sourceID], itemID)
	return nil
}

// Reset drops all watermarks for a source.
func (s *SyncStateStore) Reset(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, sourceID)
	return nil
}
