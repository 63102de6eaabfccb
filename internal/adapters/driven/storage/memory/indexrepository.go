package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/kurator/internal/adapters/driven/storage/indexstore"
	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Ensure IndexRepository implements the interface.
var _ driven.IndexRepository = (*IndexRepository)(nil)

// IndexRepository keeps the current generation in memory. Nothing is
// written to disk.
type IndexRepository struct {
	mu      sync.RWMutex
	current *indexstore.Store
}

// NewIndexRepository creates an empty repository.
func NewIndexRepository() *IndexRepository {
	return &IndexRepository{}
}

// Load returns the current generation.
func (r *IndexRepository) Load(_ context.Context) (driven.IndexStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil, fmt.Errorf("%w: no generation in memory", domain.ErrStoreNotFound)
	}
	return r.current, nil
}

// Save builds a generation and makes it current.
func (r *IndexRepository) Save(ctx context.Context, build driven.StoreBuild) (driven.IndexStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	store, err := indexstore.Build(build)
	if err != nil {
		return nil, err
	}
	store = store.WithGeneration(uuid.NewString())

	r.mu.Lock()
	r.current = store
	r.mu.Unlock()
	return store, nil
}

// Location returns a marker for the in-memory repository.
func (r *IndexRepository) Location() string {
	return ":memory:"
}
