// Package markdown parses Markdown files into headings and paragraphs.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser splits Markdown into blank-line separated blocks. Heading blocks
// become structural elements, the rest paragraphs, indexed from 0 in block
// order. Fenced code is dropped.
type Parser struct{}

// New creates a Markdown parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "markdown"
}

// Extensions returns the handled extensions.
func (p *Parser) Extensions() []string {
	return []string{"md", "markdown"}
}

// Parse splits the document into segments.
func (p *Parser) Parse(ctx context.Context, doc *domain.SourceDocument) ([]domain.Segment, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []domain.Segment
	for i, block := range splitBlocks(string(doc.Content)) {
		kind := domain.UnitParagraph
		if heading.MatchString(block) {
			kind = domain.UnitStructuralElement
		}
		text := stripMarkdown(block)
		if text == "" {
			continue
		}
		out = append(out, domain.Segment{
			SourceID:  doc.ID,
			Text:      text,
			UnitKind:  kind,
			UnitIndex: i,
		})
	}
	return out, nil
}

// splitBlocks groups lines into blocks separated by blank lines, skipping
// fenced code. A heading line always forms its own block.
func splitBlocks(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var (
		blocks  []string
		current []string
		inFence bool
	)
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			flush()
			inFence = !inFence
			continue
		}
		switch {
		case inFence:
		case trimmed == "":
			flush()
		case heading.MatchString(trimmed):
			flush()
			current = append(current, trimmed)
			flush()
		default:
			current = append(current, line)
		}
	}
	flush()
	return blocks
}

var (
	heading     = regexp.MustCompile(`^#{1,6}\s+`)
	inlineCode  = regexp.MustCompile("`([^`]+)`")
	images      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	emphasis    = regexp.MustCompile(`(\*\*|__|\*|_)([^*_\s][^*_]*?)(\*\*|__|\*|_)`)
	blockquote  = regexp.MustCompile(`(?m)^\s*>\s?`)
	rule        = regexp.MustCompile(`(?m)^\s*[-*_]{3,}\s*$`)
	listMarker  = regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s+`)
	tableBorder = regexp.MustCompile(`(?m)^\s*\|?[\s:|-]+\|?\s*$`)
)

// stripMarkdown removes inline formatting and keeps the visible text.
func stripMarkdown(block string) string {
	block = heading.ReplaceAllString(block, "")
	block = images.ReplaceAllString(block, "")
	block = links.ReplaceAllString(block, "$1")
	block = inlineCode.ReplaceAllString(block, "$1")
	block = emphasis.ReplaceAllString(block, "$2")
	block = blockquote.ReplaceAllString(block, "")
	block = rule.ReplaceAllString(block, "")
	block = tableBorder.ReplaceAllString(block, "")
	block = listMarker.ReplaceAllString(block, "")
	block = strings.ReplaceAll(block, "|", " ")
	return strings.TrimSpace(block)
}
