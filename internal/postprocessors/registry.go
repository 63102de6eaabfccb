package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// BuilderFunc creates a PassageProcessor from generic config.
// Config is a map of processor-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (driven.PassageProcessor, error)

// StageKind says where a processor may sit in a pipeline.
type StageKind int

const (
	// StageText rewrites segment text before passages exist.
	StageText StageKind = iota
	// StageSplit turns segment text into passages. A pipeline has exactly one.
	StageSplit
	// StagePassage works on the passages produced by the split stage.
	StagePassage
)

func (k StageKind) String() string {
	switch k {
	case StageText:
		return "text"
	case StageSplit:
		return "split"
	case StagePassage:
		return "passage"
	default:
		return fmt.Sprintf("StageKind(%d)", int(k))
	}
}

type registration struct {
	kind    StageKind
	builder BuilderFunc
}

// Registry maps processor names to their stage kind and builder.
type Registry struct {
	entries map[string]registration
}

// NewRegistry creates an empty processor registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// Register adds a processor builder. It panics if name is taken or
// builder is nil, like database/sql.Register.
func (r *Registry) Register(name string, kind StageKind, builder BuilderFunc) {
	if builder == nil {
		panic("postprocessors: Register builder is nil for " + name)
	}
	if _, dup := r.entries[name]; dup {
		panic("postprocessors: Register called twice for " + name)
	}
	r.entries[name] = registration{kind: kind, builder: builder}
}

// Build creates a processor by name with the given config.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PassageProcessor, error) {
	entry, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown processor %q", domain.ErrInvalidInput, name)
	}
	return entry.builder(cfg)
}

// BuildPipeline validates the stage order in cfg and builds the pipeline.
// Text stages must come before the single split stage and passage stages
// after it; a name may appear once.
func (r *Registry) BuildPipeline(cfg domain.PipelineConfig) (*Pipeline, error) {
	if err := r.checkOrder(cfg.Processors); err != nil {
		return nil, err
	}

	pipeline := NewPipeline()
	for _, name := range cfg.Processors {
		processor, err := r.Build(name, cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", name, err)
		}
		pipeline.Add(processor)
	}
	return pipeline, nil
}

func (r *Registry) checkOrder(names []string) error {
	seen := make(map[string]bool, len(names))
	split := ""
	for _, name := range names {
		entry, ok := r.entries[name]
		if !ok {
			return fmt.Errorf("%w: unknown processor %q", domain.ErrInvalidInput, name)
		}
		if seen[name] {
			return fmt.Errorf("%w: processor %q listed twice", domain.ErrInvalidInput, name)
		}
		seen[name] = true

		switch entry.kind {
		case StageText:
			if split != "" {
				return fmt.Errorf("%w: text stage %q after split stage %q", domain.ErrInvalidInput, name, split)
			}
		case StageSplit:
			if split != "" {
				return fmt.Errorf("%w: second split stage %q after %q", domain.ErrInvalidInput, name, split)
			}
			split = name
		case StagePassage:
			if split == "" {
				return fmt.Errorf("%w: passage stage %q before any split stage", domain.ErrInvalidInput, name)
			}
		}
	}
	if split == "" {
		return fmt.Errorf("%w: pipeline has no split stage", domain.ErrInvalidInput)
	}
	return nil
}

// Has reports whether a processor with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Kind returns the stage kind of a registered processor.
func (r *Registry) Kind(name string) (StageKind, bool) {
	entry, ok := r.entries[name]
	return entry.kind, ok
}

// Names returns the registered processor names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
