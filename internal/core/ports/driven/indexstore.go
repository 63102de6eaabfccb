package driven

import (
	"context"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// IndexStore is a read-only snapshot of passages and their search structure.
// It is safe for concurrent use.
type IndexStore interface {
	// Search returns up to k passages by descending similarity.
	Search(ctx context.Context, query []float32, k int) ([]SearchHit, error)

	// Passages returns every passage in index order.
	Passages() []domain.Passage

	// Sources returns the ingestion manifest of the snapshot.
	Sources() []domain.SourceRecord

	// Info describes the snapshot.
	Info() domain.StoreInfo

	// Dimensions returns the embedding size of the snapshot.
	Dimensions() int

	// Len returns the passage count.
	Len() int
}

// SearchHit is a passage matched by IndexStore.Search.
type SearchHit struct {
	Passage    domain.Passage
	Similarity float64
}

// StoreBuild is the input for a new index store generation.
type StoreBuild struct {
	// Passages are the embedded passages, in index order.
	Passages []domain.Passage

	// Sources is the manifest of documents behind the passages.
	Sources []domain.SourceRecord

	// EmbeddingModel names the model that produced the embeddings.
	EmbeddingModel string
}

// IndexRepository builds, persists and loads index store generations.
// Writers are serialised; readers always observe a complete generation.
type IndexRepository interface {
	// Load returns the current generation.
	// Fails with domain.ErrStoreNotFound when none exists.
	Load(ctx context.Context) (IndexStore, error)

	// Save builds and persists a new generation, then makes it current.
	Save(ctx context.Context, build StoreBuild) (IndexStore, error)

	// Location describes where generations live.
	Location() string
}
