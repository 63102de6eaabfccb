package file

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Ensure LexiconFile implements the interface.
var _ driven.LexiconSource = (*LexiconFile)(nil)

// LexiconFile reads lookup tables from a YAML file:
//
//	spec_keywords: [torque, hp]
//	refusal_phrases: ["i don't know"]
//	variants: [Carrera, GT3 RS]
//
// A missing file yields the defaults. An absent or empty list keeps the
// default for that list.
type LexiconFile struct {
	path string
}

// NewLexiconFile returns a lexicon source for path. An empty path always
// yields the defaults.
func NewLexiconFile(path string) *LexiconFile {
	return &LexiconFile{path: path}
}

// Load parses the file and merges it over the defaults.
func (l *LexiconFile) Load() (domain.Lexicon, error) {
	defaults := domain.DefaultLexicon()
	if l.path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return defaults, nil
	}
	if err != nil {
		return domain.Lexicon{}, fmt.Errorf("read lexicon: %w", err)
	}

	var lex domain.Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return domain.Lexicon{}, fmt.Errorf("%w: lexicon %s: %v", domain.ErrInvalidInput, l.path, err)
	}
	return lex.Merge(defaults), nil
}

// Path returns the lexicon file path.
func (l *LexiconFile) Path() string {
	return l.path
}
