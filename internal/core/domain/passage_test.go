package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPassage_CharCount(t *testing.T) {
	p := NewPassage("Höchstgeschwindigkeit 311 km/h", "specs.pdf", UnitPage, 3, 0)

	assert.Equal(t, 30, p.CharCount)
	assert.Equal(t, "specs.pdf#page:3#0", p.ID())
	require.NoError(t, p.Validate())
}

func TestPassage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		passage Passage
	}{
		{name: "empty text", passage: NewPassage("", "a.txt", UnitParagraph, 0, 0)},
		{name: "stale char count", passage: Passage{Text: "abc", SourceID: "a.txt", UnitKind: UnitParagraph, CharCount: 4}},
		{name: "unknown unit kind", passage: NewPassage("abc", "a.txt", UnitKind("chapter"), 0, 0)},
		{name: "negative index", passage: NewPassage("abc", "a.txt", UnitSlide, -1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.passage.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestNewCitation(t *testing.T) {
	tests := []struct {
		name     string
		kind     UnitKind
		location string
	}{
		{name: "page", kind: UnitPage, location: "page 4"},
		{name: "paragraph renders as page", kind: UnitParagraph, location: "page 4"},
		{name: "slide", kind: UnitSlide, location: "slide 4"},
		{name: "structural element", kind: UnitStructuralElement, location: "structural_element 4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPassage("text", "deck.pptx", tt.kind, 4, 1)
			p.VariantTag = "GT3"
			c := NewCitation(RetrievalResult{Passage: p, RawSimilarity: 0.5, AdjustedScore: 0.68})

			assert.Equal(t, "deck.pptx", c.SourceID)
			assert.Equal(t, 1, c.ChunkIndex)
			assert.Equal(t, "GT3", c.VariantTag)
			assert.InDelta(t, 0.68, c.Score, 1e-9)
			assert.Equal(t, tt.location, c.Location())
		})
	}
}

func TestGateState_IsTerminal(t *testing.T) {
	assert.False(t, StateNoQuery.IsTerminal())
	assert.False(t, StateRetrieved.IsTerminal())
	assert.False(t, StateGenerating.IsTerminal())
	assert.True(t, StateAbstain.IsTerminal())
	assert.True(t, StateAnswered.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
}

func TestAbstainAndFailureAnswersDiffer(t *testing.T) {
	assert.NotEqual(t, AbstainAnswer, FailureAnswer)
	assert.False(t, DefaultLexicon().IsRefusal(FailureAnswer))
}
