// Package chunker provides a sentence-aligned text chunking processor.
package chunker

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// DefaultMaxChars is the default upper bound on chunk length in characters.
const DefaultMaxChars = 800

// DefaultSentenceOverlap is the default number of sentences shared by
// consecutive chunks.
const DefaultSentenceOverlap = 2

// Processor splits segment text into sentence-aligned, overlapping passages.
// It implements the PassageProcessor interface.
type Processor struct {
	maxChars int
	overlap  int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxChars sets the chunk length bound in characters.
func WithMaxChars(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxChars = n
		}
	}
}

// WithSentenceOverlap sets how many sentences consecutive chunks share.
func WithSentenceOverlap(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.overlap = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxChars: DefaultMaxChars,
		overlap:  DefaultSentenceOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process chunks the segment text into new passages.
// Input passages are ignored; this processor creates passages from the segment.
func (p *Processor) Process(_ context.Context, seg *domain.Segment, _ []domain.Passage) ([]domain.Passage, error) {
	chunks := Chunk(seg.Text, p.maxChars, p.overlap)
	if len(chunks) == 0 {
		return nil, nil
	}

	passages := make([]domain.Passage, 0, len(chunks))
	for i, text := range chunks {
		passages = append(passages, domain.NewPassage(text, seg.SourceID, seg.UnitKind, seg.UnitIndex, i))
	}
	return passages, nil
}

// Chunk splits text into chunks of whole sentences joined by single spaces.
// Sentences are added greedily while the chunk stays within maxChars; a
// sentence longer than maxChars is first split on word boundaries. Each new
// chunk restarts overlap sentences before the end of the previous one, but
// always at least one sentence after the previous chunk's start.
func Chunk(text string, maxChars, overlap int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlap < 0 {
		overlap = 0
	}

	var units []string
	for _, s := range SplitSentences(text) {
		if runeLen(s) > maxChars {
			units = append(units, splitWords(s, maxChars)...)
			continue
		}
		units = append(units, s)
	}
	if len(units) == 0 {
		return nil
	}

	var chunks []string
	for start := 0; start < len(units); {
		end, length := start, 0
		for end < len(units) {
			add := runeLen(units[end])
			if end > start {
				add++ // joining space
			}
			if end > start && length+add > maxChars {
				break
			}
			length += add
			end++
		}
		chunks = append(chunks, strings.Join(units[start:end], " "))

		if end >= len(units) {
			break
		}
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// SplitSentences splits text on whitespace that follows '.', '!' or '?'.
// It does not split after a single capital initial or short title such as
// "J." or "Dr.", nor after lower-case abbreviations such as "e.g." and "i.e.".
func SplitSentences(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var sentences []string
	start := 0
	for i, w := range words {
		if i == len(words)-1 || !endsSentence(w) {
			continue
		}
		sentences = append(sentences, strings.Join(words[start:i+1], " "))
		start = i + 1
	}
	if start < len(words) {
		sentences = append(sentences, strings.Join(words[start:], " "))
	}
	return sentences
}

func endsSentence(word string) bool {
	last, _ := utf8.DecodeLastRuneInString(word)
	switch last {
	case '!', '?':
		return true
	case '.':
		return !isAbbreviation(word)
	default:
		return false
	}
}

// isAbbreviation matches "J.", "Dr." and tokens ending in "x.y." with
// lower-case letters.
func isAbbreviation(word string) bool {
	core := []rune(strings.TrimLeft(word, "(\"'[«“‘"))

	if n := len(core); n == 2 || n == 3 {
		if unicode.IsUpper(core[0]) {
			if n == 2 {
				return true
			}
			if unicode.IsLower(core[1]) {
				return true
			}
		}
	}

	if n := len(core); n >= 4 {
		tail := core[n-4:]
		if unicode.IsLower(tail[0]) && tail[1] == '.' && unicode.IsLower(tail[2]) && tail[3] == '.' {
			return true
		}
	}
	return false
}

// splitWords breaks an over-long sentence into pieces of at most maxChars,
// cutting between words. A single word longer than maxChars is cut by characters.
func splitWords(sentence string, maxChars int) []string {
	var pieces []string
	var current []string
	length := 0

	flush := func() {
		if len(current) > 0 {
			pieces = append(pieces, strings.Join(current, " "))
			current, length = nil, 0
		}
	}

	for _, w := range strings.Fields(sentence) {
		wl := runeLen(w)
		if wl > maxChars {
			flush()
			runes := []rune(w)
			for len(runes) > maxChars {
				pieces = append(pieces, string(runes[:maxChars]))
				runes = runes[maxChars:]
			}
			current, length = []string{string(runes)}, len(runes)
			continue
		}

		add := wl
		if len(current) > 0 {
			add++
		}
		if length+add > maxChars {
			flush()
			add = wl
		}
		current = append(current, w)
		length += add
	}
	flush()
	return pieces
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
