package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// mockProcessor is a test processor that returns predefined passages.
type mockProcessor struct {
	name     string
	passages []domain.Passage
	err      error
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(_ context.Context, _ *domain.Segment, passages []domain.Passage) ([]domain.Passage, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.passages != nil {
		return m.passages, nil
	}
	return passages, nil
}

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if p.Len() != 0 {
		t.Errorf("expected 0 processors, got %d", p.Len())
	}
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()
	p.Add(&mockProcessor{name: "test"})

	if p.Len() != 1 {
		t.Errorf("expected 1 processor, got %d", p.Len())
	}
	if p.Names()[0] != "test" {
		t.Errorf("expected name 'test', got %q", p.Names()[0])
	}
}

func TestPipeline_Process_EmptyPipeline(t *testing.T) {
	passages, err := NewPipeline().Process(context.Background(), domain.Segment{Text: "text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if passages != nil {
		t.Errorf("expected nil passages from empty pipeline, got %v", passages)
	}
}

func TestPipeline_Process_PassthroughProcessor(t *testing.T) {
	initial := []domain.Passage{{Text: "test"}}

	p := NewPipeline(
		&mockProcessor{name: "chunker", passages: initial},
		&mockProcessor{name: "passthrough"},
	)

	passages, err := p.Process(context.Background(), domain.Segment{Text: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 1 {
		t.Errorf("expected 1 passage, got %d", len(passages))
	}
}

func TestPipeline_Process_ProcessorError(t *testing.T) {
	expectedErr := errors.New("processor failed")

	p := NewPipeline(&mockProcessor{name: "failing", err: expectedErr})

	_, err := p.Process(context.Background(), domain.Segment{Text: "test"})
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected wrapped error, got: %v", err)
	}
}

func TestPipeline_Process_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(&mockProcessor{name: "any"}).Process(ctx, domain.Segment{Text: "test"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewDefaultPipeline(t *testing.T) {
	p, err := NewDefaultPipeline(domain.ChunkingSettings{MaxChars: 50, SentenceOverlap: 1}, domain.DefaultLexicon())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seg := domain.Segment{
		SourceID:  "specs.txt",
		Text:      "***  The GT3 revs   to 9,000 rpm!!!!  It weighs 1,435 kg.\n\nTop speed is 311 km/h.  ***",
		UnitKind:  domain.UnitParagraph,
		UnitIndex: 4,
	}

	passages, err := p.Process(context.Background(), seg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{
		"The GT3 revs to 9,000 rpm! It weighs 1,435 kg.",
		"It weighs 1,435 kg. Top speed is 311 km/h.",
	}
	if len(passages) != len(expected) {
		t.Fatalf("expected %d passages, got %d: %+v", len(expected), len(passages), passages)
	}
	for i, text := range expected {
		if passages[i].Text != text {
			t.Errorf("passage %d: expected %q, got %q", i, text, passages[i].Text)
		}
		if passages[i].ChunkIndex != i || passages[i].UnitIndex != 4 {
			t.Errorf("passage %d has wrong position: %+v", i, passages[i])
		}
	}
	if passages[0].VariantTag != "GT3" {
		t.Errorf("expected GT3 tag, got %q", passages[0].VariantTag)
	}
	if passages[1].VariantTag != "" {
		t.Errorf("expected no tag, got %q", passages[1].VariantTag)
	}
	if seg.Text[:3] != "***" {
		t.Error("caller's segment should not be modified")
	}
}
