package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
	"github.com/custodia-labs/kurator/internal/core/ports/driving"
	"github.com/custodia-labs/kurator/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// Retriever embeds queries, searches one index store snapshot and re-ranks
// the candidates. A Retriever never sees a different snapshot; reloads
// construct a new one.
type Retriever struct {
	store    driven.IndexStore
	embedder driven.EmbeddingService
	lexicon  domain.Lexicon
	cache    *queryCache
}

// NewRetriever creates a retriever over store. A cacheSize of zero
// disables the query cache.
func NewRetriever(
	store driven.IndexStore,
	embedder driven.EmbeddingService,
	lexicon domain.Lexicon,
	cacheSize int,
) *Retriever {
	r := &Retriever{
		store:    store,
		embedder: embedder,
		lexicon:  lexicon,
	}
	if cacheSize > 0 {
		r.cache = newQueryCache(cacheSize)
	}
	return r
}

// Store returns the snapshot this retriever searches.
func (r *Retriever) Store() driven.IndexStore {
	return r.store
}

// Retrieve returns at most opts.TopK results sorted by adjusted score.
// Ties keep the order the index store returned them in.
func (r *Retriever) Retrieve(
	ctx context.Context, query string, opts domain.RetrieveOptions,
) ([]domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if opts.TopK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidInput)
	}

	key := cacheKey(query, opts)
	if r.cache != nil {
		if cached, ok := r.cache.get(key); ok {
			logger.Debug("Retrieval cache hit for %q", query)
			return cached, nil
		}
	}

	if r.embedder == nil {
		return []domain.RetrievalResult{}, fmt.Errorf("retriever: %w", domain.ErrEmbeddingUnavailable)
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return []domain.RetrievalResult{}, fmt.Errorf("retriever: %w", err)
		}
		return []domain.RetrievalResult{}, fmt.Errorf("retriever: %w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vec) != r.store.Dimensions() {
		return []domain.RetrievalResult{}, fmt.Errorf("retriever: %w: query has %d dimensions, store has %d",
			domain.ErrDimensionMismatch, len(vec), r.store.Dimensions())
	}

	hits, err := r.store.Search(ctx, domain.NormalizeVector(vec), opts.TopK*domain.OversampleFactor)
	if err != nil {
		return []domain.RetrievalResult{}, fmt.Errorf("retriever: %w", err)
	}

	results := Rank(hits, r.lexicon.DetectVariant(query), opts)
	logger.Debug("Retrieved %d of %d candidates for %q", len(results), len(hits), query)

	if r.cache != nil {
		r.cache.put(key, results)
	}
	return results, nil
}

// Rank filters, deduplicates and boosts search hits, then sorts them by
// adjusted score and truncates to opts.TopK. variant is the facet detected
// in the query; empty means no boost.
func Rank(hits []driven.SearchHit, variant string, opts domain.RetrieveOptions) []domain.RetrievalResult {
	seen := make(map[string]struct{}, len(hits))
	results := make([]domain.RetrievalResult, 0, len(hits))

	for rank, hit := range hits {
		p := hit.Passage
		if hit.Similarity < opts.MinSimilarity || p.CharCount < opts.MinChunkLength {
			continue
		}
		if _, dup := seen[p.Text]; dup {
			continue
		}
		seen[p.Text] = struct{}{}

		adjusted := hit.Similarity
		if variant != "" && p.VariantTag != "" && strings.EqualFold(p.VariantTag, variant) {
			adjusted = math.Min(adjusted+opts.VariantBoost, domain.MaxSimilarity)
		}

		results = append(results, domain.RetrievalResult{
			Passage:       p,
			RawSimilarity: hit.Similarity,
			AdjustedScore: adjusted,
			Rank:          rank,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].AdjustedScore > results[j].AdjustedScore
	})

	if len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	return results
}
