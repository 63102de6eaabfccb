package postprocessors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// --- Mock implementations ---

type registryMockProcessor struct {
	name string
}

func (m *registryMockProcessor) Name() string { return m.name }
func (m *registryMockProcessor) Process(_ context.Context, _ *domain.Segment, passages []domain.Passage) ([]domain.Passage, error) {
	return passages, nil
}

func mockBuilder(name string) BuilderFunc {
	return func(map[string]any) (driven.PassageProcessor, error) {
		return &registryMockProcessor{name: name}, nil
	}
}

func defaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r, domain.DefaultLexicon())
	return r
}

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	r.Register("custom", StageText, func(cfg map[string]any) (driven.PassageProcessor, error) {
		name, _ := cfg["name"].(string)
		return &registryMockProcessor{name: name}, nil
	})

	assert.True(t, r.Has("custom"))
	kind, ok := r.Kind("custom")
	require.True(t, ok)
	assert.Equal(t, StageText, kind)

	proc, err := r.Build("custom", map[string]any{"name": "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", proc.Name())

	_, err = r.Build("stemmer", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_RegisterPanics(t *testing.T) {
	r := NewRegistry()
	r.Register("cleaner", StageText, mockBuilder("cleaner"))

	assert.Panics(t, func() { r.Register("cleaner", StageText, mockBuilder("cleaner")) })
	assert.Panics(t, func() { r.Register("nil", StageText, nil) })
}

func TestRegistry_NamesSorted(t *testing.T) {
	assert.Equal(t, []string{"chunker", "cleaner", "tagger"}, defaultRegistry().Names())
}

func TestRegisterDefaults_Kinds(t *testing.T) {
	r := defaultRegistry()

	for name, want := range map[string]StageKind{
		"cleaner": StageText,
		"chunker": StageSplit,
		"tagger":  StagePassage,
	} {
		got, ok := r.Kind(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
}

func TestRegistry_BuildPipeline(t *testing.T) {
	r := defaultRegistry()

	p, err := r.BuildPipeline(domain.DefaultPipelineConfig(domain.ChunkingSettings{MaxChars: 100}))
	require.NoError(t, err)
	assert.Equal(t, []string{"cleaner", "chunker", "tagger"}, p.Names())

	p, err = r.BuildPipeline(domain.PipelineConfig{Processors: []string{"chunker"}})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())
}

func TestRegistry_BuildPipelineRejectsBadOrder(t *testing.T) {
	r := defaultRegistry()
	r.Register("splitter", StageSplit, mockBuilder("splitter"))

	tests := []struct {
		name       string
		processors []string
		msg        string
	}{
		{"unknown", []string{"cleaner", "stemmer", "chunker"}, `unknown processor "stemmer"`},
		{"duplicate", []string{"cleaner", "cleaner", "chunker"}, `"cleaner" listed twice`},
		{"text after split", []string{"chunker", "cleaner"}, `text stage "cleaner" after split stage "chunker"`},
		{"two splits", []string{"chunker", "splitter"}, `second split stage "splitter"`},
		{"passage before split", []string{"tagger", "chunker"}, `passage stage "tagger" before any split stage`},
		{"no split", []string{"cleaner"}, "no split stage"},
		{"empty", nil, "no split stage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.BuildPipeline(domain.PipelineConfig{Processors: tt.processors})
			require.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestBuildChunker_Config(t *testing.T) {
	r := defaultRegistry()

	proc, err := r.Build("chunker", map[string]any{
		"max_chars":        int64(500),
		"sentence_overlap": float64(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "chunker", proc.Name())

	proc, err = r.Build("chunker", nil)
	require.NoError(t, err)
	assert.Equal(t, "chunker", proc.Name())
}

func TestStageKind_String(t *testing.T) {
	assert.Equal(t, "text", StageText.String())
	assert.Equal(t, "split", StageSplit.String())
	assert.Equal(t, "passage", StagePassage.String())
	assert.Equal(t, "StageKind(9)", StageKind(9).String())
}

func TestGetIntFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      map[string]any
		expected int
		found    bool
	}{
		{"int value", map[string]any{"size": 100}, 100, true},
		{"int64 value", map[string]any{"size": int64(200)}, 200, true},
		{"float64 value", map[string]any{"size": float64(300)}, 300, true},
		{"string value", map[string]any{"size": "400"}, 0, false},
		{"missing key", map[string]any{"other": 100}, 0, false},
		{"nil config", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := getIntFromConfig(tt.cfg, "size")
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.found, found)
		})
	}
}
