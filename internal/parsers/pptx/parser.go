// Package pptx parses PowerPoint decks into slides.
package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Package parts and the relationships namespace used by p:sldId.
const (
	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"
	relNamespace     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// Parser reads the slides of a deck in presentation order. Each slide is
// one segment indexed by its 1-based position in that order; text of
// separate shapes and paragraphs is joined with newlines. Decks without a
// usable slide list fall back to the slideN.xml part numbers.
type Parser struct{}

// New creates a PPTX parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "pptx"
}

// Extensions returns the handled extensions.
func (p *Parser) Extensions() []string {
	return []string{"pptx"}
}

type slideFile struct {
	number int
	file   *zip.File
}

// Parse extracts slide segments in slide order.
func (p *Parser) Parse(ctx context.Context, doc *domain.SourceDocument) ([]domain.Segment, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a pptx archive: %v", domain.ErrInvalidInput, doc.ID, err)
	}

	slides, err := presentationOrder(reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.ID, err)
	}
	if len(slides) == 0 {
		slides = partOrder(reader)
	}

	var out []domain.Segment
	for _, s := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := readSlide(s.file)
		if err != nil {
			return nil, fmt.Errorf("%s slide %d: %w", doc.ID, s.number, err)
		}
		if text == "" {
			continue
		}
		out = append(out, domain.Segment{
			SourceID:  doc.ID,
			Text:      text,
			UnitKind:  domain.UnitSlide,
			UnitIndex: s.number,
		})
	}
	return out, nil
}

// partOrder lists slide parts by the number in their name.
func partOrder(reader *zip.Reader) []slideFile {
	var slides []slideFile
	for _, f := range reader.File {
		m := slidePart.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slideFile{number: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })
	return slides
}

// presentationOrder resolves p:sldIdLst in ppt/presentation.xml through its
// relationships and numbers the slides 1..n in that order. It returns nil
// when the deck has no presentation part or no slide list.
func presentationOrder(reader *zip.Reader) ([]slideFile, error) {
	files := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		files[f.Name] = f
	}
	pres, ok := files[presentationPart]
	if !ok {
		return nil, nil
	}

	ids, err := readXML(pres, slideIDs)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	relsFile, ok := files[presentationRels]
	if !ok {
		return nil, nil
	}
	targets, err := readXML(relsFile, relationshipTargets)
	if err != nil {
		return nil, err
	}

	slides := make([]slideFile, 0, len(ids))
	for _, id := range ids {
		name, ok := targets[id]
		if !ok {
			return nil, fmt.Errorf("%w: slide relationship %s not found", domain.ErrInvalidInput, id)
		}
		f, ok := files[name]
		if !ok {
			return nil, fmt.Errorf("%w: slide part %s missing", domain.ErrInvalidInput, name)
		}
		slides = append(slides, slideFile{number: len(slides) + 1, file: f})
	}
	return slides, nil
}

func readXML[T any](f *zip.File, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	rc, err := f.Open()
	if err != nil {
		return zero, err
	}
	defer rc.Close()
	return parse(rc)
}

// slideIDs returns the r:id of every p:sldId, in list order.
func slideIDs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var ids []string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return ids, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed presentation xml: %v", domain.ErrInvalidInput, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "sldId" {
			continue
		}
		for _, attr := range start.Attr {
			if attr.Name.Space == relNamespace && attr.Name.Local == "id" {
				ids = append(ids, attr.Value)
			}
		}
	}
}

// relationshipTargets maps relationship IDs to package part names.
// Targets are relative to ppt/ unless they start with a slash.
func relationshipTargets(r io.Reader) (map[string]string, error) {
	var rels struct {
		Items []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
			Mode   string `xml:"TargetMode,attr"`
		} `xml:"Relationship"`
	}
	if err := xml.NewDecoder(r).Decode(&rels); err != nil {
		return nil, fmt.Errorf("%w: malformed relationships xml: %v", domain.ErrInvalidInput, err)
	}

	targets := make(map[string]string, len(rels.Items))
	for _, rel := range rels.Items {
		if rel.Mode == "External" {
			continue
		}
		if strings.HasPrefix(rel.Target, "/") {
			targets[rel.ID] = strings.TrimPrefix(rel.Target, "/")
		} else {
			targets[rel.ID] = path.Join("ppt", rel.Target)
		}
	}
	return targets, nil
}

func readSlide(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return SlideText(rc)
}

// SlideText returns the text of DrawingML a:p paragraphs, one line each.
func SlideText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		lines  []string
		line   strings.Builder
		inPara bool
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: malformed slide xml: %v", domain.ErrInvalidInput, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				line.Reset()
			case "t":
				inText = true
			case "br":
				line.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				inPara = false
				if s := strings.TrimSpace(line.String()); s != "" {
					lines = append(lines, s)
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inPara && inText {
				line.Write(t)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
