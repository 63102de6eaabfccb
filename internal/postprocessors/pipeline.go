// Package postprocessors provides the ingestion pipeline that turns parsed
// segments into passages.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Pipeline chains multiple PassageProcessors and runs them in order.
// It implements the PassagePipeline interface.
type Pipeline struct {
	processors []driven.PassageProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PassageProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs one segment through all processors in order.
// The segment is copied, so the caller's value is never modified.
func (p *Pipeline) Process(ctx context.Context, seg domain.Segment) ([]domain.Passage, error) {
	var passages []domain.Passage

	for _, processor := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		passages, err = processor.Process(ctx, &seg, passages)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return passages, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PassageProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns the processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, processor := range p.processors {
		names[i] = processor.Name()
	}
	return names
}
