package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexicon holds the lookup tables behind the dynamic confidence threshold,
// the variant boost and the model-side refusal check.
type Lexicon struct {
	// SpecKeywords mark measurement-oriented queries, which use the lower
	// specification threshold.
	SpecKeywords []string `yaml:"spec_keywords"`

	// RefusalPhrases mark generated answers that decline to answer.
	RefusalPhrases []string `yaml:"refusal_phrases"`

	// Variants is the vocabulary of named domain sub-topics.
	Variants []string `yaml:"variants"`
}

// DefaultLexicon returns the built-in lookup tables.
func DefaultLexicon() Lexicon {
	return Lexicon{
		SpecKeywords: []string{
			"torque", "hp", "horsepower", "power", "nm", "lb-ft", "bhp", "kw",
			"acceleration", "top speed", "speed", "0-60", "0-100", "0 to",
			"weight", "displacement",
		},
		RefusalPhrases: []string{
			"i don't know", "not mentioned", "not in the documents",
			"no information", "unable to find", "cannot answer", "not provided",
			"no data", "insufficient", "not explicitly stated", "no clear match",
		},
		Variants: []string{
			"Carrera", "Carrera S", "Carrera 4", "Carrera 4S", "Carrera GTS",
			"Carrera 4 GTS", "Carrera T", "Targa", "Targa 4", "Targa 4S",
			"Targa 4 GTS", "Turbo", "Turbo S", "GT3", "GT3 RS", "GT3 Touring",
			"GT2 RS", "Sport Classic", "Dakar", "S/T",
		},
	}
}

// Merge returns l with every empty table replaced by the one from fallback.
func (l Lexicon) Merge(fallback Lexicon) Lexicon {
	if len(l.SpecKeywords) == 0 {
		l.SpecKeywords = fallback.SpecKeywords
	}
	if len(l.RefusalPhrases) == 0 {
		l.RefusalPhrases = fallback.RefusalPhrases
	}
	if len(l.Variants) == 0 {
		l.Variants = fallback.Variants
	}
	return l
}

// IsSpecQuery returns true if the query mentions any spec keyword. A keyword
// may touch a number ("300hp", "0-100km/h") but not a letter, so "power"
// does not match "powertrain".
func (l Lexicon) IsSpecQuery(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range l.SpecKeywords {
		if containsTerm(lower, strings.ToLower(strings.TrimSpace(kw)), sameClass) {
			return true
		}
	}
	return false
}

// IsRefusal returns true if the answer contains any refusal phrase.
// Matching is a case-insensitive substring test.
func (l Lexicon) IsRefusal(answer string) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range l.RefusalPhrases {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase != "" && strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// DetectVariant returns the longest vocabulary entry found in text as a
// whole term, or "" when none is present. Ties go to the earlier entry.
func (l Lexicon) DetectVariant(text string) string {
	lower := strings.ToLower(text)
	best := ""
	for _, v := range l.Variants {
		term := strings.ToLower(strings.TrimSpace(v))
		if len(term) <= len(best) {
			continue
		}
		if containsTerm(lower, term, anyWordRunes) {
			best = strings.TrimSpace(v)
		}
	}
	return best
}

// gluedFunc reports whether a term edge rune and the rune next to it form
// one token.
type gluedFunc func(edge, neighbour rune) bool

// anyWordRunes glues any two letters or digits.
func anyWordRunes(edge, neighbour rune) bool {
	return isWordRune(edge) && isWordRune(neighbour)
}

// sameClass glues letter to letter and digit to digit only.
func sameClass(edge, neighbour rune) bool {
	return (unicode.IsLetter(edge) && unicode.IsLetter(neighbour)) ||
		(unicode.IsDigit(edge) && unicode.IsDigit(neighbour))
}

// containsTerm reports whether term occurs in s without being glued to a
// neighbouring rune.
func containsTerm(s, term string, glued gluedFunc) bool {
	if term == "" {
		return false
	}
	for offset := 0; offset < len(s); {
		i := strings.Index(s[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(term)
		if isBoundary(s, start, term, true, glued) && isBoundary(s, end, term, false, glued) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		offset = start + size
	}
	return false
}

func isBoundary(s string, pos int, term string, before bool, glued gluedFunc) bool {
	var neighbour, edge rune
	if before {
		if pos == 0 {
			return true
		}
		neighbour, _ = utf8.DecodeLastRuneInString(s[:pos])
		edge, _ = utf8.DecodeRuneInString(term)
	} else {
		if pos >= len(s) {
			return true
		}
		neighbour, _ = utf8.DecodeRuneInString(s[pos:])
		edge, _ = utf8.DecodeLastRuneInString(term)
	}
	return !glued(edge, neighbour)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
