package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates no parser handles a document format.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrConfigNotFound indicates a configuration key is not set.
	ErrConfigNotFound = errors.New("config key not found")

	// ErrInvalidProvider indicates an unknown or misconfigured AI provider.
	ErrInvalidProvider = errors.New("invalid provider")

	// Index Store Errors.

	// ErrStoreNotFound indicates no persisted index store exists at the path.
	// Fatal at startup: the engine must not serve without a store.
	ErrStoreNotFound = errors.New("index store not found")

	// ErrDimensionMismatch indicates embedding dimensionality disagrees with
	// the stored index, usually a model/index version skew.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStoreCorrupt indicates the persisted artifacts disagree with each other.
	ErrStoreCorrupt = errors.New("index store corrupt")

	// ErrStoreLocked indicates another writer holds the store lock.
	ErrStoreLocked = errors.New("index store locked by another writer")

	// Provider Errors.

	// ErrEmbeddingUnavailable indicates the embedding provider failed or is not configured.
	// Per query this degrades to an abstention.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation provider call failed.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrGenerationTimeout indicates the generation call exceeded its deadline.
	ErrGenerationTimeout = errors.New("generation timed out")
)
