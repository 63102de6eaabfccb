package parsers

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
	"github.com/custodia-labs/kurator/internal/parsers/docx"
	"github.com/custodia-labs/kurator/internal/parsers/html"
	"github.com/custodia-labs/kurator/internal/parsers/markdown"
	"github.com/custodia-labs/kurator/internal/parsers/pdf"
	"github.com/custodia-labs/kurator/internal/parsers/plaintext"
	"github.com/custodia-labs/kurator/internal/parsers/pptx"
)

// Ensure Registry implements the interface.
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry maps file extensions to parsers. A later registration for the
// same extension replaces the earlier one.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]driven.Parser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]driven.Parser)}
}

// NewDefaultRegistry returns a registry holding every built-in parser.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(pptx.New())
	r.Register(pdf.New())
	return r
}

// Register adds p for each of its extensions.
func (r *Registry) Register(p driven.Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range p.Extensions() {
		r.parsers[normaliseExt(ext)] = p
	}
}

// ForExtension returns the parser for ext, with or without a leading dot.
func (r *Registry) ForExtension(ext string) (driven.Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[normaliseExt(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
	return p, nil
}

// Extensions returns every supported extension, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normaliseExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
