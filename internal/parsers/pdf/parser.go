// Package pdf extracts page text from PDF files using pdftotext.
//
// Requires poppler-utils to be installed:
//   - macOS: brew install poppler
//   - Ubuntu/Debian: apt install poppler-utils
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler-utils")

const tool = "pdftotext"

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Parser runs `pdftotext -layout` and splits its output into pages on form
// feeds. Pages are numbered from 1.
type Parser struct {
	runner CommandRunner
}

// New creates a PDF parser that shells out to pdftotext.
func New() *Parser {
	return &Parser{runner: execRunner{}}
}

// NewWithRunner creates a PDF parser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Parser {
	return &Parser{runner: runner}
}

// CheckAvailable reports whether pdftotext is on the PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath(tool); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform-specific install hints.
func InstallInstructions() string {
	return `pdftotext is required for PDF ingestion.

Install poppler-utils:
  macOS:         brew install poppler
  Ubuntu/Debian: apt install poppler-utils
  Fedora:        dnf install poppler-utils`
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "pdf"
}

// Extensions returns the handled extensions.
func (p *Parser) Extensions() []string {
	return []string{"pdf"}
}

// Parse extracts one segment per non-empty page.
func (p *Parser) Parse(ctx context.Context, doc *domain.SourceDocument) ([]domain.Segment, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	path := doc.Path
	if path == "" {
		tmp, err := writeTemp(doc.Content)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmp)
		path = tmp
	}

	out, err := p.runner.Run(ctx, tool, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pdftotext failed for %s: %w", doc.ID, err)
	}

	return SplitPages(doc.ID, string(out)), nil
}

// SplitPages splits pdftotext output on form feeds.
func SplitPages(sourceID, text string) []domain.Segment {
	var out []domain.Segment
	for i, page := range strings.Split(text, "\f") {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		out = append(out, domain.Segment{
			SourceID:  sourceID,
			Text:      page,
			UnitKind:  domain.UnitPage,
			UnitIndex: i + 1,
		})
	}
	return out
}

func writeTemp(content []byte) (string, error) {
	f, err := os.CreateTemp("", "kurator-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to stage pdf: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(content); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to stage pdf: %w", err)
	}
	return f.Name(), nil
}
