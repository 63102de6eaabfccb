// Package cleaner provides the text normalisation stage of the ingestion pipeline.
package cleaner

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// punctRunLength is the shortest run of one repeated punctuation character
// that gets collapsed.
const punctRunLength = 3

// Normalize cleans raw segment text for indexing. It drops non-printable
// characters (newline and tab are kept until whitespace is collapsed),
// composes to NFC, folds ligatures and full-width ASCII, collapses
// whitespace to single spaces, collapses runs of three or more identical
// punctuation characters, and strips punctuation-only tokens from both ends.
// Superscripts, subscripts, fractions and symbols such as ™ are kept: in
// technical text "10⁵" and "105" are different figures.
//
// Normalize is idempotent and never fails; degenerate input yields "".
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}

	folded := foldPresentationForms(norm.NFC.String(b.String()))
	words := strings.Fields(folded)
	if len(words) == 0 {
		return ""
	}

	collapsed := collapsePunctRuns(strings.Join(words, " "))
	return trimStandalonePunct(collapsed)
}

// foldPresentationForms applies compatibility folding to Latin ligatures
// (U+FB00..U+FB06) and full-width ASCII (U+FF01..U+FF5E) only.
func foldPresentationForms(s string) string {
	if !strings.ContainsFunc(s, isPresentationForm) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isPresentationForm(r) {
			b.WriteString(norm.NFKC.String(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isPresentationForm(r rune) bool {
	return (r >= 0xFB00 && r <= 0xFB06) || (r >= 0xFF01 && r <= 0xFF5E)
}

// collapsePunctRuns replaces every run of punctRunLength or more identical
// punctuation characters with a single occurrence.
func collapsePunctRuns(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(runes); {
		r := runes[i]
		j := i + 1
		for j < len(runes) && runes[j] == r {
			j++
		}
		if isPunct(r) && j-i >= punctRunLength {
			b.WriteRune(r)
		} else {
			b.WriteString(string(runes[i:j]))
		}
		i = j
	}
	return b.String()
}

// trimStandalonePunct drops leading and trailing tokens that carry no
// letter or digit, such as bullets, rules and stray dashes. Punctuation
// attached to a word is kept.
func trimStandalonePunct(s string) string {
	words := strings.Split(s, " ")
	start, end := 0, len(words)
	for start < end && !hasWordRune(words[start]) {
		start++
	}
	for end > start && !hasWordRune(words[end-1]) {
		end--
	}
	return strings.Join(words[start:end], " ")
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func hasWordRune(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// Processor normalises segment text before chunking.
// It implements the PassageProcessor interface.
type Processor struct{}

// New creates a cleaner processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "cleaner"
}

// Process rewrites the segment text in place. Passages pass through untouched.
func (p *Processor) Process(_ context.Context, seg *domain.Segment, passages []domain.Passage) ([]domain.Passage, error) {
	seg.Text = Normalize(seg.Text)
	return passages, nil
}
