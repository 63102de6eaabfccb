package domain

import (
	"fmt"
	"unicode/utf8"
)

// UnitKind is the structural subdivision of a source document a passage came from.
type UnitKind string

// Available unit kinds.
const (
	UnitPage              UnitKind = "page"
	UnitParagraph         UnitKind = "paragraph"
	UnitSlide             UnitKind = "slide"
	UnitStructuralElement UnitKind = "structural_element"
)

// IsValid returns true if the unit kind is recognised.
func (k UnitKind) IsValid() bool {
	switch k {
	case UnitPage, UnitParagraph, UnitSlide, UnitStructuralElement:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k UnitKind) String() string {
	return string(k)
}

// Segment is one positioned block of text emitted by a document parser.
type Segment struct {
	// SourceID identifies the document the segment came from.
	SourceID string

	// Text is the raw segment text, not yet normalised.
	Text string

	// UnitKind is the structural unit the text belongs to.
	UnitKind UnitKind

	// UnitIndex is the unit's position within the source.
	UnitIndex int
}

// SourceDocument is a file handed to a parser.
type SourceDocument struct {
	// ID is the source identifier cited in answers (relative path).
	ID string

	// Path is the absolute location on disk.
	Path string

	// Format is the lower-case file extension without the dot.
	Format string

	// ContentHash is the hex SHA-256 of Content.
	ContentHash string

	// Content is the raw file bytes.
	Content []byte
}

// Passage is the immutable unit of retrieval.
type Passage struct {
	// Text is the normalised passage text. Never empty.
	Text string `json:"text"`

	// Embedding is the unit-length vector for Text.
	Embedding []float32 `json:"-"`

	// SourceID identifies the originating document.
	SourceID string `json:"source_id"`

	// UnitKind and UnitIndex locate the passage within its source.
	UnitKind  UnitKind `json:"unit_kind"`
	UnitIndex int      `json:"unit_index"`

	// ChunkIndex is the position within the unit's chunk sequence.
	ChunkIndex int `json:"chunk_index"`

	// VariantTag is the detected domain variant, empty when none was found.
	VariantTag string `json:"variant_tag,omitempty"`

	// CharCount is the length of Text in characters.
	CharCount int `json:"char_count"`
}

// NewPassage creates a passage with CharCount derived from text.
func NewPassage(text, sourceID string, kind UnitKind, unitIndex, chunkIndex int) Passage {
	return Passage{
		Text:       text,
		SourceID:   sourceID,
		UnitKind:   kind,
		UnitIndex:  unitIndex,
		ChunkIndex: chunkIndex,
		CharCount:  utf8.RuneCountInString(text),
	}
}

// ID returns the identity of the passage within one ingestion run.
func (p Passage) ID() string {
	return fmt.Sprintf("%s#%s:%d#%d", p.SourceID, p.UnitKind, p.UnitIndex, p.ChunkIndex)
}

// Validate checks the structural invariants of a passage.
func (p Passage) Validate() error {
	if p.Text == "" {
		return fmt.Errorf("%w: passage %s has empty text", ErrInvalidInput, p.ID())
	}
	if p.CharCount != utf8.RuneCountInString(p.Text) {
		return fmt.Errorf("%w: passage %s char_count %d does not match text", ErrInvalidInput, p.ID(), p.CharCount)
	}
	if !p.UnitKind.IsValid() {
		return fmt.Errorf("%w: passage %s has unknown unit kind", ErrInvalidInput, p.ID())
	}
	if p.UnitIndex < 0 || p.ChunkIndex < 0 {
		return fmt.Errorf("%w: passage %s has negative position", ErrInvalidInput, p.ID())
	}
	return nil
}
