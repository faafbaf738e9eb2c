package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driving"
)

// mockIngestor implements driving.Ingestor for testing.
type mockIngestor struct {
	summary *driving.SyncSummary
	err     error
	synced  []string
}

func (m *mockIngestor) Sync(_ context.Context, sourceID string) (*driving.SyncSummary, error) {
	m.synced = append(m.synced, sourceID)
	if m.summary != nil {
		return m.summary, m.err
	}
	return &driving.SyncSummary{SourceID: sourceID}, m.err
}

func (m *mockIngestor) SyncAll(_ context.Context) error {
	m.synced = append(m.synced, "*")
	return m.err
}

func (m *mockIngestor) Status(_ context.Context, _ string) (*driving.SyncStatus, error) {
	return nil, nil
}

// mockResponder implements driving.Responder for testing.
type mockResponder struct {
	turn *domain.ConversationTurn
	err  error
	reqs []driving.AskRequest
}

func (m *mockResponder) Respond(_ context.Context, req driving.AskRequest) (*domain.ConversationTurn, error) {
	m.reqs = append(m.reqs, req)
	if m.err != nil {
		return nil, m.err
	}
	if m.turn != nil {
		return m.turn, nil
	}
	return &domain.ConversationTurn{Text: "mock answer"}, nil
}

// mockVectorStore implements driven.VectorStore for testing.
type mockVectorStore struct {
	results []domain.SearchResult
	err     error
	queries []string
}

func (m *mockVectorStore) Add(_ context.Context, _ []domain.Chunk) error { return nil }

func (m *mockVectorStore) Search(_ context.Context, query string, _ domain.SearchOptions) ([]domain.SearchResult, error) {
	m.queries = append(m.queries, query)
	return m.results, m.err
}

func (m *mockVectorStore) Get(_ context.Context, _ []string) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockVectorStore) Delete(_ context.Context, _ []string) error       { return nil }
func (m *mockVectorStore) DeleteDocument(_ context.Context, _ string) error { return nil }
func (m *mockVectorStore) Count(_ context.Context) (int, error)             { return 0, nil }
func (m *mockVectorStore) Close() error                                     { return nil }

// mockSourceStore implements driven.SourceProvider and SourceEditor.
type mockSourceStore struct {
	sources []domain.Source
	removed []string
}

func (m *mockSourceStore) Sources(_ context.Context) ([]domain.Source, error) {
	return m.sources, nil
}

func (m *mockSourceStore) Source(_ context.Context, id string) (*domain.Source, error) {
	for i := range m.sources {
		if m.sources[i].ID == id {
			return &m.sources[i], nil
		}
	}
	return nil, fmt.Errorf("%w: source %s", domain.ErrNotFound, id)
}

func (m *mockSourceStore) AddSource(id, sourceType, name string, config map[string]string) error {
	m.sources = append(m.sources, domain.Source{ID: id, Type: sourceType, Name: name, Config: config})
	return nil
}

func (m *mockSourceStore) RemoveSource(id string) error {
	for i, src := range m.sources {
		if src.ID == id {
			m.sources = append(m.sources[:i], m.sources[i+1:]...)
			m.removed = append(m.removed, id)
			return nil
		}
	}
	return fmt.Errorf("%w: source %s", domain.ErrNotFound, id)
}

// mockCredentialStore implements CredentialStore.
type mockCredentialStore struct {
	clientID     string
	clientSecret string
	refreshToken string
	setErr       error
}

func (m *mockCredentialStore) GDriveCredentials() (string, string) {
	return m.clientID, m.clientSecret
}

func (m *mockCredentialStore) SetGDriveCredentials(clientID, clientSecret, refreshToken string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.clientID = clientID
	m.clientSecret = clientSecret
	m.refreshToken = refreshToken
	return nil
}

// setupTestServices swaps every injected service for a mock and returns
// a cleanup function restoring the originals.
func setupTestServices() func() {
	oldResponder := responderService
	oldSync := syncService
	oldScheduler := schedulerService
	oldVectors := vectorStore
	oldProvider := sourceProvider
	oldEditor := sourceEditor
	oldCreds := credentialStore
	oldEvents := eventsHandler

	store := &mockSourceStore{sources: []domain.Source{
		{ID: "web-1", Type: "web", Name: "Docs site"},
	}}
	responderService = &mockResponder{}
	syncService = &mockIngestor{}
	schedulerService = nil
	vectorStore = &mockVectorStore{}
	sourceProvider = store
	sourceEditor = store
	credentialStore = &mockCredentialStore{}
	eventsHandler = http.NotFoundHandler()

	return func() {
		responderService = oldResponder
		syncService = oldSync
		schedulerService = oldScheduler
		vectorStore = oldVectors
		sourceProvider = oldProvider
		sourceEditor = oldEditor
		credentialStore = oldCreds
		eventsHandler = oldEvents
	}
}
