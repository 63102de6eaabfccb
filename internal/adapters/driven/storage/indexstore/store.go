// Package indexstore implements the index store: passages, their vectors
// and the nearest-neighbour structure over them, persisted as immutable
// generations.
//
// A generation directory holds two parallel artifacts:
//
//   - index.vec: the serialised flat vector index
//   - passages.db: passage text and metadata in index order, plus the
//     ingestion manifest
//
// The repository writes each generation into a fresh directory and then
// swaps the CURRENT pointer file with a rename, so a reader only ever sees
// a complete generation.
package indexstore

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/custodia-labs/kurator/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// normTolerance is how far a vector norm may stray from 1 before Build
// renormalises it.
const normTolerance = 1e-3

// Store is an immutable index store snapshot.
type Store struct {
	generation string
	model      string
	createdAt  time.Time
	index      *flat.Index
	passages   []domain.Passage
	sources    []domain.SourceRecord
}

// Build validates passages and constructs the search structure over their
// embeddings. Embeddings are expected to be unit length; any that are not
// are normalised. Build never modifies its input.
func Build(build driven.StoreBuild) (*Store, error) {
	if len(build.Passages) == 0 {
		return nil, fmt.Errorf("%w: no passages to index", domain.ErrInvalidInput)
	}

	dim := len(build.Passages[0].Embedding)
	if dim == 0 {
		return nil, fmt.Errorf("%w: passage %s has no embedding", domain.ErrInvalidInput, build.Passages[0].ID())
	}

	index := flat.New(dim)
	passages := make([]domain.Passage, len(build.Passages))
	seen := make(map[string]struct{}, len(build.Passages))

	for i, p := range build.Passages {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if len(p.Embedding) != dim {
			return nil, fmt.Errorf("%w: passage %s has %d dimensions, want %d",
				domain.ErrDimensionMismatch, p.ID(), len(p.Embedding), dim)
		}
		id := p.ID()
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate passage %s", domain.ErrInvalidInput, id)
		}
		seen[id] = struct{}{}

		vec := p.Embedding
		if math.Abs(math.Sqrt(domain.Dot(vec, vec))-1) > normTolerance {
			vec = domain.NormalizeVector(vec)
		}
		pos, err := index.Add(vec)
		if err != nil {
			return nil, err
		}
		p.Embedding = index.Vector(pos)
		passages[i] = p
	}

	return &Store{
		model:     build.EmbeddingModel,
		createdAt: time.Now().UTC(),
		index:     index,
		passages:  passages,
		sources:   append([]domain.SourceRecord(nil), build.Sources...),
	}, nil
}

// Search returns up to k passages by descending similarity. Equal
// similarities keep index order.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]driven.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != s.index.Dimensions() {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d",
			domain.ErrDimensionMismatch, len(query), s.index.Dimensions())
	}

	hits, err := s.index.Search(query, k)
	if err != nil {
		return nil, err
	}

	out := make([]driven.SearchHit, len(hits))
	for i, h := range hits {
		out[i] = driven.SearchHit{Passage: s.passages[h.Position], Similarity: h.Similarity}
	}
	return out, nil
}

// Passages returns every passage in index order.
func (s *Store) Passages() []domain.Passage {
	return append([]domain.Passage(nil), s.passages...)
}

// Sources returns the ingestion manifest.
func (s *Store) Sources() []domain.SourceRecord {
	return append([]domain.SourceRecord(nil), s.sources...)
}

// Info describes the snapshot.
func (s *Store) Info() domain.StoreInfo {
	return domain.StoreInfo{
		Generation:     s.generation,
		Dimensions:     s.index.Dimensions(),
		Passages:       len(s.passages),
		Sources:        len(s.sources),
		EmbeddingModel: s.model,
		CreatedAt:      s.createdAt,
	}
}

// Dimensions returns the embedding size.
func (s *Store) Dimensions() int {
	return s.index.Dimensions()
}

// Len returns the passage count.
func (s *Store) Len() int {
	return len(s.passages)
}

// Generation returns the generation identifier, empty until persisted.
func (s *Store) Generation() string {
	return s.generation
}

// WithGeneration returns a shallow copy of s labelled with a generation.
func (s *Store) WithGeneration(generation string) *Store {
	c := *s
	c.generation = generation
	return &c
}
