// Package plaintext parses .txt files into paragraphs.
package plaintext

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// blankLine separates paragraphs. Whitespace-only lines count as blank.
var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// Parser splits text on blank lines. Each block is a paragraph indexed
// from 0 by its position in the split, so empty blocks leave gaps.
type Parser struct{}

// New creates a plain text parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "plaintext"
}

// Extensions returns the handled extensions.
func (p *Parser) Extensions() []string {
	return []string{"txt"}
}

// Parse splits the document into paragraph segments.
func (p *Parser) Parse(ctx context.Context, doc *domain.SourceDocument) ([]domain.Segment, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return SplitParagraphs(doc.ID, string(doc.Content)), nil
}

// SplitParagraphs splits text into paragraph segments on blank lines.
func SplitParagraphs(sourceID, text string) []domain.Segment {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	blocks := blankLine.Split(text, -1)

	var out []domain.Segment
	for i, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		out = append(out, domain.Segment{
			SourceID:  sourceID,
			Text:      block,
			UnitKind:  domain.UnitParagraph,
			UnitIndex: i,
		})
	}
	return out
}
