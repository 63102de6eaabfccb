// Package docx parses Word documents into paragraphs.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

const documentPart = "word/document.xml"

// Parser reads word/document.xml. Every w:p element, including those in
// tables, is a paragraph indexed from 0 in document order; empty ones are
// skipped but keep their index.
type Parser struct{}

// New creates a DOCX parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "docx"
}

// Extensions returns the handled extensions.
func (p *Parser) Extensions() []string {
	return []string{"docx"}
}

// Parse extracts paragraph segments.
func (p *Parser) Parse(ctx context.Context, doc *domain.SourceDocument) ([]domain.Segment, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a docx archive: %v", domain.ErrInvalidInput, doc.ID, err)
	}

	part, err := reader.Open(documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no %s", domain.ErrInvalidInput, doc.ID, documentPart)
	}
	defer part.Close()

	paragraphs, err := ReadParagraphs(ctx, part)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.ID, err)
	}

	var out []domain.Segment
	for i, text := range paragraphs {
		if text == "" {
			continue
		}
		out = append(out, domain.Segment{
			SourceID:  doc.ID,
			Text:      text,
			UnitKind:  domain.UnitParagraph,
			UnitIndex: i,
		})
	}
	return out, nil
}

// ReadParagraphs streams WordprocessingML and returns the trimmed text of
// every w:p element in order. Tabs and breaks become whitespace.
func ReadParagraphs(ctx context.Context, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		buf        strings.Builder
		depth      int
		inText     bool
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return paragraphs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed document xml: %v", domain.ErrInvalidInput, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					buf.Reset()
				}
				depth++
			case "t":
				inText = true
			case "tab":
				buf.WriteByte('\t')
			case "br", "cr":
				buf.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, strings.TrimSpace(buf.String()))
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && depth > 0 {
				buf.Write(t)
			}
		}
	}
}
