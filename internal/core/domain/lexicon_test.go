package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexicon_IsSpecQuery(t *testing.T) {
	lex := DefaultLexicon()

	tests := []struct {
		name     string
		query    string
		expected bool
	}{
		{name: "torque keyword", query: "How much torque does the Carrera make?", expected: true},
		{name: "case insensitive", query: "What is the HP of the Turbo S", expected: true},
		{name: "multi word keyword", query: "top speed of the GT3", expected: true},
		{name: "sprint figure", query: "0-60 time for the Targa", expected: true},
		{name: "descriptive query", query: "Tell me about the history of the 911", expected: false},
		{name: "keyword inside another word", query: "Describe the cabin environment", expected: false},
		{name: "keyword prefix of longer word", query: "Explain the powertrain layout", expected: false},
		{name: "unit glued to number", query: "What is the 300hp variant?", expected: true},
		{name: "sprint with unit", query: "What is the 0-60mph time?", expected: true},
		{name: "metric sprint with unit", query: "What is its 0-100km/h time?", expected: true},
		{name: "upper case unit glued to number", query: "Is it the 450kW engine?", expected: true},
		{name: "bare unit", query: "How many hp?", expected: true},
		{name: "empty query", query: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, lex.IsSpecQuery(tt.query))
		})
	}
}

func TestLexicon_IsRefusal(t *testing.T) {
	lex := DefaultLexicon()

	assert.True(t, lex.IsRefusal(AbstainAnswer))
	assert.True(t, lex.IsRefusal("The weight is NOT MENTIONED in the context."))
	assert.True(t, lex.IsRefusal("There is insufficient detail here."))
	assert.False(t, lex.IsRefusal("The GT3 reaches 311 km/h."))
}

func TestLexicon_DetectVariant(t *testing.T) {
	lex := DefaultLexicon()

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "simple variant", text: "What is the top speed of the GT3?", expected: "GT3"},
		{name: "longest match wins", text: "The 911 GT3 RS wing produces downforce", expected: "GT3 RS"},
		{name: "longest match across entries", text: "horsepower of the Porsche 911 Turbo S", expected: "Turbo S"},
		{name: "lower case query", text: "carrera gts engine", expected: "Carrera GTS"},
		{name: "no partial word match", text: "A turbocharged flat-six", expected: ""},
		{name: "no variant", text: "When was the 992 introduced?", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, lex.DetectVariant(tt.text))
		})
	}
}

func TestLexicon_Merge(t *testing.T) {
	custom := Lexicon{Variants: []string{"Cayman"}}
	merged := custom.Merge(DefaultLexicon())

	assert.Equal(t, []string{"Cayman"}, merged.Variants)
	assert.Equal(t, DefaultLexicon().SpecKeywords, merged.SpecKeywords)
	assert.Equal(t, DefaultLexicon().RefusalPhrases, merged.RefusalPhrases)
}
