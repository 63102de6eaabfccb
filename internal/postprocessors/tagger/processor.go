// Package tagger annotates passages with the domain variant they discuss.
package tagger

import (
	"context"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// Processor sets Passage.VariantTag by longest-match lookup in the lexicon.
// It implements the PassageProcessor interface.
type Processor struct {
	lexicon domain.Lexicon
}

// New creates a tagger using the given lexicon's variant vocabulary.
func New(lexicon domain.Lexicon) *Processor {
	return &Processor{lexicon: lexicon}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "tagger"
}

// Process tags each passage. Passages without a known variant keep an empty tag.
func (p *Processor) Process(_ context.Context, _ *domain.Segment, passages []domain.Passage) ([]domain.Passage, error) {
	for i := range passages {
		passages[i].VariantTag = p.lexicon.DetectVariant(passages[i].Text)
	}
	return passages, nil
}
