package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedKind indicates no extractor can handle a content kind.
	ErrUnsupportedKind = errors.New("unsupported content kind")

	// ErrNoContent indicates a fetched item had no extractable text.
	// The item is skipped with a note, not treated as a failure.
	ErrNoContent = errors.New("no content")

	// ErrFetch indicates a per-item fetch failure. The item is skipped
	// and the batch continues.
	ErrFetch = errors.New("fetch failed")

	// ErrStoreUnavailable indicates the vector store backend cannot be
	// reached. Fatal to the current batch or search call; the caller owns
	// any retry policy.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrSyncState indicates the watermark store failed. Fatal to the
	// sync pass: without watermarks a pass cannot run safely.
	ErrSyncState = errors.New("sync state store failed")

	// ErrSyncInProgress indicates a sync pass is already running for the
	// source.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrModelUnavailable indicates the language model API itself failed.
	// Terminal for the turn; the user gets a fixed fallback message.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")

	// ErrRateLimited indicates an external API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
