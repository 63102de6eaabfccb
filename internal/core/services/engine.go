package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
	"github.com/custodia-labs/kurator/internal/core/ports/driving"
	"github.com/custodia-labs/kurator/internal/logger"
)

// Ensure Engine implements the interface.
var _ driving.QueryService = (*Engine)(nil)

// Snapshot pairs one loaded index store with the retriever and gate that
// serve it. Snapshots are never mutated after construction.
type Snapshot struct {
	Store     driven.IndexStore
	Retriever *Retriever
	Gate      *AnswerService
}

// EngineDeps are the collaborators an Engine is built from.
type EngineDeps struct {
	Repository driven.IndexRepository
	Embedder   driven.EmbeddingService
	LLM        driven.LLMService
	Prompts    driven.PromptStore
	Lexicon    domain.Lexicon
	Settings   domain.AppSettings
}

// Engine is the process-wide query service. It serves a read-only snapshot
// that only changes on an explicit Reload, so concurrent queries never
// observe a half-loaded store.
type Engine struct {
	deps     EngineDeps
	current  atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
}

// NewEngine creates an engine. Call Open before serving.
func NewEngine(deps EngineDeps) *Engine {
	return &Engine{deps: deps}
}

// Open loads and validates the current generation. A missing, corrupt or
// dimension-mismatched store is fatal: the engine will not serve.
func (e *Engine) Open(ctx context.Context) error {
	_, err := e.Reload(ctx)
	return err
}

// Reload loads the latest generation and swaps it in. On failure the
// previous snapshot keeps serving.
func (e *Engine) Reload(ctx context.Context) (domain.StoreInfo, error) {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	logger.Section("Engine Reload")
	store, err := e.deps.Repository.Load(ctx)
	if err != nil {
		return domain.StoreInfo{}, fmt.Errorf("engine: %w", err)
	}
	if err := e.validate(store); err != nil {
		return domain.StoreInfo{}, err
	}

	snap := e.newSnapshot(store)
	prev := e.current.Swap(snap)

	info := store.Info()
	if prev != nil && prev.Store.Info().Generation == info.Generation {
		logger.Debug("Generation %s unchanged", info.Generation)
	} else {
		logger.Info("Serving generation %s (%d passages, %d dimensions)", info.Generation, info.Passages, info.Dimensions)
	}
	return info, nil
}

func (e *Engine) validate(store driven.IndexStore) error {
	if e.deps.Embedder == nil {
		return nil
	}
	// Providers that learn their size from the first response report 0.
	want := e.deps.Embedder.Dimensions()
	if want > 0 && want != store.Dimensions() {
		return fmt.Errorf("engine: %w: %s produces %d dimensions, store has %d",
			domain.ErrDimensionMismatch, e.deps.Embedder.ModelName(), want, store.Dimensions())
	}
	return nil
}

func (e *Engine) newSnapshot(store driven.IndexStore) *Snapshot {
	s := e.deps.Settings
	retriever := NewRetriever(store, e.deps.Embedder, e.deps.Lexicon, s.Retrieval.CacheSize)
	gate := NewAnswerService(retriever, e.deps.LLM, e.deps.Prompts, e.deps.Lexicon, AnswerConfigFrom(&s))
	return &Snapshot{Store: store, Retriever: retriever, Gate: gate}
}

// Snapshot returns the snapshot currently serving, or nil before Open.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Info describes the serving generation.
func (e *Engine) Info() (domain.StoreInfo, error) {
	snap := e.current.Load()
	if snap == nil {
		return domain.StoreInfo{}, fmt.Errorf("engine: %w", domain.ErrStoreNotFound)
	}
	return snap.Store.Info(), nil
}

// Answer runs the grounding gate against the serving snapshot.
func (e *Engine) Answer(ctx context.Context, question string) (*domain.AnswerRecord, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, fmt.Errorf("engine: %w", domain.ErrStoreNotFound)
	}
	return snap.Gate.Answer(ctx, question)
}

// Retrieve searches the serving snapshot.
func (e *Engine) Retrieve(
	ctx context.Context, query string, opts domain.RetrieveOptions,
) ([]domain.RetrievalResult, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, fmt.Errorf("engine: %w", domain.ErrStoreNotFound)
	}
	return snap.Retriever.Retrieve(ctx, query, opts)
}

// RetrieveOptions returns the configured retrieval defaults.
func (e *Engine) RetrieveOptions() domain.RetrieveOptions {
	return e.deps.Settings.Retrieval.RetrieveOptions
}

// Generator returns the generation provider, which may be nil.
func (e *Engine) Generator() driven.LLMService {
	return e.deps.LLM
}

// Prompts returns the prompt store.
func (e *Engine) Prompts() driven.PromptStore {
	return e.deps.Prompts
}
