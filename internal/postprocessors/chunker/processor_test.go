package chunker

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

const threeSentences = "Engine produces 450 hp. Top speed is 190 mph. Weight is 1500 kg."

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.maxChars != DefaultMaxChars {
			t.Errorf("expected maxChars %d, got %d", DefaultMaxChars, p.maxChars)
		}
		if p.overlap != DefaultSentenceOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultSentenceOverlap, p.overlap)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithMaxChars(500), WithSentenceOverlap(1))
		if p.maxChars != 500 || p.overlap != 1 {
			t.Errorf("expected 500/1, got %d/%d", p.maxChars, p.overlap)
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithMaxChars(0), WithSentenceOverlap(-1))
		if p.maxChars != DefaultMaxChars || p.overlap != DefaultSentenceOverlap {
			t.Errorf("expected defaults, got %d/%d", p.maxChars, p.overlap)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	if New().Name() != "chunker" {
		t.Errorf("expected name 'chunker', got %q", New().Name())
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{
			name:     "three sentences",
			input:    threeSentences,
			expected: []string{"Engine produces 450 hp.", "Top speed is 190 mph.", "Weight is 1500 kg."},
		},
		{
			name:     "question and exclamation",
			input:    "Is it fast? Yes! Very.",
			expected: []string{"Is it fast?", "Yes!", "Very."},
		},
		{
			name:     "single capital initial",
			input:    "Designed by F. Porsche in 1963. It was new.",
			expected: []string{"Designed by F. Porsche in 1963.", "It was new."},
		},
		{
			name:     "title abbreviation",
			input:    "Dr. Ferry Porsche approved it. Production began.",
			expected: []string{"Dr. Ferry Porsche approved it.", "Production began."},
		},
		{
			name:     "lower case abbreviation",
			input:    "Some variants, e.g. the GT3, use a naturally aspirated engine. Others do not.",
			expected: []string{"Some variants, e.g. the GT3, use a naturally aspirated engine.", "Others do not."},
		},
		{
			name:     "no terminal punctuation",
			input:    "Twin-turbo flat-six",
			expected: []string{"Twin-turbo flat-six"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.input)
			if strings.Join(got, "|") != strings.Join(tt.expected, "|") || len(got) != len(tt.expected) {
				t.Errorf("SplitSentences(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestChunk_EmptyInput(t *testing.T) {
	if got := Chunk("", 40, 1); len(got) != 0 {
		t.Errorf("expected no chunks, got %q", got)
	}
	if got := Chunk("   ", 40, 1); len(got) != 0 {
		t.Errorf("expected no chunks for whitespace, got %q", got)
	}
}

func TestChunk_ThreeSentenceDocument(t *testing.T) {
	sentences := SplitSentences(threeSentences)
	chunks := Chunk(threeSentences, 40, 1)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != "Engine produces 450 hp." {
		t.Errorf("unexpected first chunk %q", chunks[0])
	}
	if chunks[1] != "Top speed is 190 mph. Weight is 1500 kg." {
		t.Errorf("unexpected second chunk %q", chunks[1])
	}

	for _, c := range chunks {
		if utf8.RuneCountInString(c) > 40 {
			t.Errorf("chunk exceeds limit: %q", c)
		}
		if !containsAnySentence(c, sentences) {
			t.Errorf("chunk holds no complete sentence: %q", c)
		}
	}
	assertAllSentencesKept(t, sentences, chunks)
}

func TestChunk_OverlapSharesSentence(t *testing.T) {
	chunks := Chunk(threeSentences, 50, 1)

	expected := []string{
		"Engine produces 450 hp. Top speed is 190 mph.",
		"Top speed is 190 mph. Weight is 1500 kg.",
	}
	if strings.Join(chunks, "|") != strings.Join(expected, "|") {
		t.Fatalf("Chunk() = %q, want %q", chunks, expected)
	}
	if !strings.HasSuffix(chunks[0], "Top speed is 190 mph.") || !strings.HasPrefix(chunks[1], "Top speed is 190 mph.") {
		t.Error("expected the boundary sentence in both chunks")
	}
}

func TestChunk_OverlapNeverStalls(t *testing.T) {
	// Every sentence fills a chunk on its own, so an overlap of 5 would
	// otherwise move the cursor backwards forever.
	text := "Alpha beta gamma. Delta epsilon zeta. Eta theta iota."
	chunks := Chunk(text, 20, 5)

	expected := []string{"Alpha beta gamma.", "Delta epsilon zeta.", "Eta theta iota."}
	if strings.Join(chunks, "|") != strings.Join(expected, "|") {
		t.Errorf("Chunk() = %q, want %q", chunks, expected)
	}
}

func TestChunk_SplitsOversizeSentence(t *testing.T) {
	long := "The flat-six engine revs to nine thousand rpm and delivers its peak output near the limiter."
	chunks := Chunk(long+" Short one.", 30, 0)

	for _, c := range chunks {
		if utf8.RuneCountInString(c) > 30 {
			t.Errorf("chunk exceeds limit: %q (%d)", c, utf8.RuneCountInString(c))
		}
	}

	joined := strings.Join(chunks, " ")
	if strings.Join(strings.Fields(joined), " ") != long+" Short one." {
		t.Errorf("words lost or reordered: %q", joined)
	}
}

func TestChunk_SplitsOversizeWord(t *testing.T) {
	word := strings.Repeat("x", 25)
	chunks := Chunk(word, 10, 0)

	expected := []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}
	if strings.Join(chunks, "|") != strings.Join(expected, "|") {
		t.Errorf("Chunk() = %q, want %q", chunks, expected)
	}
}

func TestChunk_NoSentenceDropped(t *testing.T) {
	text := "The 992 arrived in 2019. It uses a 3.0 litre twin-turbo flat-six. " +
		"The Carrera makes 385 PS. The Carrera S makes 450 PS. " +
		"The GT3 revs to 9,000 rpm! Is the Turbo S faster? Yes, it reaches 330 km/h."
	sentences := SplitSentences(text)

	for _, maxChars := range []int{20, 40, 60, 120, 800} {
		for _, overlap := range []int{0, 1, 2, 3} {
			chunks := Chunk(text, maxChars, overlap)
			for _, c := range chunks {
				if utf8.RuneCountInString(c) > maxChars {
					t.Errorf("max=%d overlap=%d: chunk exceeds limit: %q", maxChars, overlap, c)
				}
			}
			if maxChars >= 60 {
				assertAllSentencesKept(t, sentences, chunks)
			}
		}
	}
}

func TestProcessor_Process(t *testing.T) {
	p := New(WithMaxChars(40), WithSentenceOverlap(1))
	seg := &domain.Segment{SourceID: "specs.txt", Text: threeSentences, UnitKind: domain.UnitParagraph, UnitIndex: 2}

	passages, err := p.Process(context.Background(), seg, []domain.Passage{{Text: "ignored"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}

	for i, ps := range passages {
		if ps.SourceID != "specs.txt" || ps.UnitKind != domain.UnitParagraph || ps.UnitIndex != 2 {
			t.Errorf("passage %d lost segment position: %+v", i, ps)
		}
		if ps.ChunkIndex != i {
			t.Errorf("expected chunk index %d, got %d", i, ps.ChunkIndex)
		}
		if ps.CharCount != utf8.RuneCountInString(ps.Text) {
			t.Errorf("char count mismatch for %q", ps.Text)
		}
	}
}

func TestProcessor_Process_EmptySegment(t *testing.T) {
	passages, err := New().Process(context.Background(), &domain.Segment{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if passages != nil {
		t.Errorf("expected nil passages, got %v", passages)
	}
}

func containsAnySentence(chunk string, sentences []string) bool {
	for _, s := range sentences {
		if strings.Contains(chunk, s) {
			return true
		}
	}
	return false
}

func assertAllSentencesKept(t *testing.T, sentences, chunks []string) {
	t.Helper()
	joined := strings.Join(chunks, " ")
	for _, s := range sentences {
		if !strings.Contains(joined, s) {
			t.Errorf("sentence dropped: %q", s)
		}
	}
}
