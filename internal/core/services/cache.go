package services

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// queryCache is a bounded LRU of retrieval results keyed by query and
// options. It is safe for concurrent use.
type queryCache struct {
	mu      sync.Mutex
	limit   int
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	key     string
	results []domain.RetrievalResult
}

func newQueryCache(limit int) *queryCache {
	return &queryCache{
		limit:   limit,
		order:   list.New(),
		entries: make(map[string]*list.Element, limit),
	}
}

func cacheKey(query string, opts domain.RetrieveOptions) string {
	return fmt.Sprintf("%s\x00%d\x00%g\x00%d\x00%g",
		query, opts.TopK, opts.MinSimilarity, opts.MinChunkLength, opts.VariantBoost)
}

// get returns a copy of the cached results.
func (c *queryCache) get(key string) ([]domain.RetrievalResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	entry, _ := el.Value.(*cacheEntry)
	return append([]domain.RetrievalResult(nil), entry.results...), true
}

func (c *queryCache) put(key string, results []domain.RetrievalResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := append([]domain.RetrievalResult(nil), results...)
	if el, ok := c.entries[key]; ok {
		entry, _ := el.Value.(*cacheEntry)
		entry.results = stored
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, results: stored})
	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		entry, _ := oldest.Value.(*cacheEntry)
		delete(c.entries, entry.key)
		c.order.Remove(oldest)
	}
}

func (c *queryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
