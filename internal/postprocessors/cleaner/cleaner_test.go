package cleaner

import (
	"context"
	"testing"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "whitespace only", input: " \n\t  ", expected: ""},
		{name: "punctuation only", input: "*** --- ...", expected: ""},
		{name: "collapses whitespace", input: "Top   speed\n\nis\t311 km/h.", expected: "Top speed is 311 km/h."},
		{name: "removes control characters", input: "GT3\x00 RS\x07 wing", expected: "GT3 RS wing"},
		{name: "collapses punctuation runs", input: "Wow!!!! Really???", expected: "Wow! Really?"},
		{name: "keeps short punctuation runs", input: "Range: 0-100 km/h!!", expected: "Range: 0-100 km/h!!"},
		{name: "strips standalone bullets", input: "• Twin-turbo flat-six •", expected: "Twin-turbo flat-six"},
		{name: "keeps punctuation attached to words", input: "(Carrera S) 450 hp.", expected: "(Carrera S) 450 hp."},
		{name: "strips rules around headings", input: "==== Technical Data ====", expected: "Technical Data"},
		{name: "folds full-width ASCII", input: "ｆｕｌｌ width", expected: "full width"},
		{name: "folds ligatures", input: "eﬃcient engine", expected: "efficient engine"},
		{name: "keeps superscript units", input: "Displacement 10⁵ cm³", expected: "Displacement 10⁵ cm³"},
		{name: "keeps superscript exponents", input: "Power 2⁸ units", expected: "Power 2⁸ units"},
		{name: "keeps subscripts", input: "CO₂ emissions 0.3 m²", expected: "CO₂ emissions 0.3 m²"},
		{name: "keeps trademark sign", input: "Porsche™ 911", expected: "Porsche™ 911"},
		{name: "keeps vulgar fractions", input: "½ litre", expected: "½ litre"},
		{name: "composes combining accents", input: "Le Mans cafe\u0301", expected: "Le Mans caf\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Engine produces 450 hp. Top speed is 190 mph.",
		"  --- Weight: 1,500 kg!!! ---  ",
		"!!! ??? ...",
		"e\t́ accent",
		"´ leading acute",
		"Tab\tseparated\tcolumns\r\nand CRLF",
		"½ litre … ellipsis",
		"ｆｕｌｌ width ﬁ ligature",
		"a!!!!!!b???c",
		"\xff\xfe invalid bytes",
		"- • -",
		"911 GT3 RS (992) — 386 kW",
		"Displacement 10⁵ cm³ ™ ²",
		"e\x00\u0301 composed after removal",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestProcessor(t *testing.T) {
	p := New()
	if p.Name() != "cleaner" {
		t.Errorf("expected name 'cleaner', got %q", p.Name())
	}

	seg := &domain.Segment{Text: "  Top\n\nspeed  ", UnitKind: domain.UnitPage, UnitIndex: 1}
	passages := []domain.Passage{{Text: "unchanged"}}

	got, err := p.Process(context.Background(), seg, passages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.Text != "Top speed" {
		t.Errorf("expected segment text to be normalised, got %q", seg.Text)
	}
	if len(got) != 1 || got[0].Text != "unchanged" {
		t.Errorf("expected passages to pass through, got %v", got)
	}
}
