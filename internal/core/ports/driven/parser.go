package driven

import (
	"context"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// Parser turns a source document into positioned text segments.
// One implementation exists per supported format.
type Parser interface {
	// Name returns the parser name for logging.
	Name() string

	// Extensions returns the lower-case file extensions handled, without dots.
	Extensions() []string

	// Parse extracts segments. Empty segments are omitted.
	Parse(ctx context.Context, doc *domain.SourceDocument) ([]domain.Segment, error)
}

// ParserRegistry selects the parser for a document.
type ParserRegistry interface {
	// Register adds a parser for its extensions.
	Register(p Parser)

	// ForExtension returns the parser for an extension, or domain.ErrUnsupportedFormat.
	ForExtension(ext string) (Parser, error)

	// Extensions returns every supported extension.
	Extensions() []string
}
