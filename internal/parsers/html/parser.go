// Package html parses HTML files into block-level structural elements.
package html

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser emits the text of each block element (headings, paragraphs, list
// items, table cells and similar) as a structural element indexed from 0
// in document order.
type Parser struct{}

// New creates an HTML parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "html"
}

// Extensions returns the handled extensions.
func (p *Parser) Extensions() []string {
	return []string{"html", "htm"}
}

// blockElements end the current text block when opened or closed.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Td: true, atom.Th: true, atom.Tr: true, atom.Blockquote: true,
	atom.Pre: true, atom.Dt: true, atom.Dd: true, atom.Figcaption: true, atom.Caption: true,
	atom.Br: true, atom.Hr: true, atom.Table: true, atom.Ul: true, atom.Ol: true,
}

// skipElements have no readable content.
var skipElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Head: true,
	atom.Svg: true, atom.Template: true,
}

// Parse tokenises the document and collects block text.
func (p *Parser) Parse(ctx context.Context, doc *domain.SourceDocument) ([]domain.Segment, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	var (
		out   []domain.Segment
		buf   strings.Builder
		skip  int
		index int
	)
	flush := func() {
		text := strings.Join(strings.Fields(buf.String()), " ")
		buf.Reset()
		if text == "" {
			return
		}
		out = append(out, domain.Segment{
			SourceID:  doc.ID,
			Text:      text,
			UnitKind:  domain.UnitStructuralElement,
			UnitIndex: index,
		})
		index++
	}

	z := html.NewTokenizer(bytes.NewReader(doc.Content))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				flush()
				return out, nil
			}
			return nil, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if skipElements[tok.DataAtom] && tt == html.StartTagToken {
				skip++
				continue
			}
			if blockElements[tok.DataAtom] {
				flush()
			}

		case html.EndTagToken:
			tok := z.Token()
			if skipElements[tok.DataAtom] {
				if skip > 0 {
					skip--
				}
				continue
			}
			if blockElements[tok.DataAtom] {
				flush()
			}

		case html.TextToken:
			if skip == 0 {
				buf.WriteString(string(z.Text()))
				buf.WriteByte(' ')
			}
		}
	}
}
