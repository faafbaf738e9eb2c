package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/swiss-ai/dsl25-7-center-bot/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.centerbot/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".centerbot", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SyncStateStore returns a SyncStateStore interface backed by this store.
func (s *Store) SyncStateStore() driven.SyncStateStore {
	return &syncStateStore{store: s}
}

// ConversationStore returns a ConversationStore interface backed by this store.
func (s *Store) ConversationStore() driven.ConversationStore {
	return &conversationStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Sync State Store ====================

// syncStateStore implements driven.SyncStateStore.
type syncStateStore struct {
	store *Store
}

var _ driven.SyncStateStore = (*syncStateStore)(nil)

// Watermarks returns the full item -> last-synced-modification-time map
// for a source. A source never synced yields an empty map.
func (s *syncStateStore) Watermarks(ctx context.Context, sourceID string) (map[string]time.Time, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT item_id, modified_at
		FROM sync_records WHERE source_id = ?
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying sync records: %w", err)
	}
	defer rows.Close()

	marks := make(map[string]time.Time)
	for rows.Next() {
		var itemID string
		var modifiedNanos int64
		if err := rows.Scan(&itemID, &modifiedNanos); err != nil {
			return nil, fmt.Errorf("scanning sync record: %w", err)
		}
		marks[itemID] = time.Unix(0, modifiedNanos).UTC()
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync records: %w", err)
	}

	return marks, nil
}

// Commit advances the watermark for one item. A commit that would move a
// watermark backwards is ignored; watermarks are monotonic.
func (s *syncStateStore) Commit(ctx context.Context, sourceID, itemID string, modifiedAt time.Time) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_records (source_id, item_id, modified_at)
		VALUES (?, ?, ?)
		ON CONFLICT(source_id, item_id) DO UPDATE SET
			modified_at = excluded.modified_at
		WHERE excluded.modified_at > sync_records.modified_at
	`, sourceID, itemID, modifiedAt.UnixNano())

	if err != nil {
		return fmt.Errorf("committing sync record: %w", err)
	}
	return nil
}

// Forget drops the watermark for one item.
func (s *syncStateStore) Forget(ctx context.Context, sourceID, itemID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM sync_records WHERE source_id = ? AND item_id = ?", sourceID, itemID)
	if err != nil {
		return fmt.Errorf("forgetting sync record: %w", err)
	}
	return nil
}

// Reset drops all watermarks for a source, forcing a full re-ingest.
func (s *syncStateStore) Reset(ctx context.Context, sourceID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM sync_records WHERE source_id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("resetting sync records: %w", err)
	}
	return nil
}

// ==================== Conversation Store ====================

// conversationStore implements driven.ConversationStore.
type conversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*conversationStore)(nil)

// Append records one message at the end of a conversation.
func (s *conversationStore) Append(ctx context.Context, conversationID string, msg domain.Message) error {
	if conversationID == "" {
		return domain.ErrInvalidInput
	}

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (conversation_id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`, conversationID, msg.Role, msg.Content, createdAt.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

// Recent returns up to limit most recent messages, oldest first.
func (s *conversationStore) Recent(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT role, content, created_at FROM (
			SELECT id, role, content, created_at
			FROM conversation_messages
			WHERE conversation_id = ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message //nolint:prealloc // size unknown from query
	for rows.Next() {
		var msg domain.Message
		var createdAt string
		if err := rows.Scan(&msg.Role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			msg.CreatedAt = t
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return messages, nil
}

// Prune drops messages beyond the keep most recent per conversation.
func (s *conversationStore) Prune(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM conversation_messages
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY conversation_id ORDER BY id DESC) as rn
				FROM conversation_messages
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning messages: %w", err)
	}
	return nil
}
