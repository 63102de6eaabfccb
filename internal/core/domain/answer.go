package domain

import "fmt"

// Fixed user-visible answers. AbstainAnswer is also the sentence the
// generation prompt mandates when the context is insufficient.
const (
	AbstainAnswer = "I don't know based on the provided documents."
	FailureAnswer = "Sorry, I encountered an error while generating the response. Please try again."
)

// GateState is a state of the grounding gate.
type GateState string

// Grounding gate states.
const (
	StateNoQuery    GateState = "NO_QUERY"
	StateRetrieved  GateState = "RETRIEVED"
	StateGenerating GateState = "GENERATING"
	StateAbstain    GateState = "ABSTAIN"
	StateAnswered   GateState = "ANSWERED"
	StateFailed     GateState = "FAILED"
)

// IsTerminal returns true for states that end a query.
func (s GateState) IsTerminal() bool {
	return s == StateAbstain || s == StateAnswered || s == StateFailed
}

// String returns the string representation.
func (s GateState) String() string {
	return string(s)
}

// OutcomeReason explains why the gate ended in its terminal state.
type OutcomeReason string

// Outcome reasons.
const (
	ReasonAnswered             OutcomeReason = "answered"
	ReasonNoRelevantPassages   OutcomeReason = "no_relevant_passages"
	ReasonLowConfidence        OutcomeReason = "low_confidence"
	ReasonModelRefusal         OutcomeReason = "model_refusal"
	ReasonEmbeddingUnavailable OutcomeReason = "embedding_unavailable"
	ReasonRetrievalError       OutcomeReason = "retrieval_error"
	ReasonGenerationTimeout    OutcomeReason = "generation_timeout"
	ReasonGenerationError      OutcomeReason = "generation_error"
)

// Citation points the reader at the passage an answer relied on.
type Citation struct {
	SourceID   string   `json:"source_id"`
	UnitKind   UnitKind `json:"unit_kind"`
	UnitIndex  int      `json:"unit_index"`
	Page       *int     `json:"page,omitempty"`
	Slide      *int     `json:"slide,omitempty"`
	ChunkIndex int      `json:"chunk_index"`
	VariantTag string   `json:"variant_tag,omitempty"`
	Score      float64  `json:"score"`
}

// NewCitation derives a citation from a retrieval result. Pages and
// paragraphs are rendered as a page reference, slides as a slide reference.
func NewCitation(r RetrievalResult) Citation {
	p := r.Passage
	c := Citation{
		SourceID:   p.SourceID,
		UnitKind:   p.UnitKind,
		UnitIndex:  p.UnitIndex,
		ChunkIndex: p.ChunkIndex,
		VariantTag: p.VariantTag,
		Score:      r.AdjustedScore,
	}
	idx := p.UnitIndex
	switch p.UnitKind {
	case UnitPage, UnitParagraph:
		c.Page = &idx
	case UnitSlide:
		c.Slide = &idx
	}
	return c
}

// Location renders the unit reference for display.
func (c Citation) Location() string {
	switch {
	case c.Page != nil:
		return fmt.Sprintf("page %d", *c.Page)
	case c.Slide != nil:
		return fmt.Sprintf("slide %d", *c.Slide)
	default:
		return fmt.Sprintf("%s %d", c.UnitKind, c.UnitIndex)
	}
}

// AnswerRecord is the per-query output of the grounding gate.
type AnswerRecord struct {
	// Query is the question as asked.
	Query string `json:"query"`

	// Answer is the generated answer, AbstainAnswer or FailureAnswer.
	Answer string `json:"answer"`

	// Citations lists every passage that was placed in the context.
	Citations []Citation `json:"citations"`

	// Confidence is the highest pre-boost similarity among retrieved passages.
	Confidence float64 `json:"confidence"`

	// State is the terminal gate state.
	State GateState `json:"state"`

	// Reason explains State.
	Reason OutcomeReason `json:"reason"`

	// Threshold is the confidence threshold that applied to the query.
	Threshold float64 `json:"threshold"`

	// Trace lists the states the gate passed through, in order.
	Trace []GateState `json:"trace"`

	// Err carries the underlying per-query error, if any.
	Err error `json:"-"`
}

// Abstained returns true if the engine declined to answer.
func (a *AnswerRecord) Abstained() bool {
	return a.State == StateAbstain
}

// Failed returns true if a service failure prevented an answer.
func (a *AnswerRecord) Failed() bool {
	return a.State == StateFailed
}
