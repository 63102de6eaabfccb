package indexstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

func passage(source string, idx int, text string, vec ...float32) domain.Passage {
	p := domain.NewPassage(text, source, domain.UnitPage, idx, 0)
	p.Embedding = vec
	return p
}

func testBuild() driven.StoreBuild {
	return driven.StoreBuild{
		Passages: []domain.Passage{
			passage("manual.pdf", 1, "The Turbo S produces 650 hp.", 1, 0, 0),
			passage("manual.pdf", 2, "The GT3 reaches a top speed of 318 km/h.", 0, 1, 0),
			passage("brochure.pdf", 1, "Interior leather options are available.", 0, 0, 1),
			passage("brochure.pdf", 2, "The Carrera uses a twin-turbo flat six.", 0.6, 0.8, 0),
		},
		Sources: []domain.SourceRecord{
			{SourceID: "manual.pdf", Path: "/data/manual.pdf", ContentHash: "aa", Passages: 2},
			{SourceID: "brochure.pdf", Path: "/data/brochure.pdf", ContentHash: "bb", Passages: 2},
		},
		EmbeddingModel: "nomic-embed-text",
	}
}

func TestBuild_SearchOrdersBySimilarity(t *testing.T) {
	s, err := Build(testBuild())
	require.NoError(t, err)

	hits, err := s.Search(context.Background(), []float32{0, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "manual.pdf#page:2#0", hits[0].Passage.ID())
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, "brochure.pdf#page:2#0", hits[1].Passage.ID())
	assert.InDelta(t, 0.8, hits[1].Similarity, 1e-6)
}

func TestBuild_NormalisesVectors(t *testing.T) {
	b := testBuild()
	b.Passages[0].Embedding = []float32{3, 0, 0}

	s, err := Build(b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.Passages()[0].Embedding[0], 1e-6)
	assert.Equal(t, float32(3), b.Passages[0].Embedding[0], "input must not be modified")
}

func TestBuild_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*driven.StoreBuild)
		want   error
	}{
		{
			name:   "no passages",
			mutate: func(b *driven.StoreBuild) { b.Passages = nil },
			want:   domain.ErrInvalidInput,
		},
		{
			name:   "missing embedding",
			mutate: func(b *driven.StoreBuild) { b.Passages[0].Embedding = nil },
			want:   domain.ErrInvalidInput,
		},
		{
			name:   "mixed dimensions",
			mutate: func(b *driven.StoreBuild) { b.Passages[2].Embedding = []float32{1, 0} },
			want:   domain.ErrDimensionMismatch,
		},
		{
			name:   "duplicate id",
			mutate: func(b *driven.StoreBuild) { b.Passages[1] = b.Passages[0] },
			want:   domain.ErrInvalidInput,
		},
		{
			name:   "empty text",
			mutate: func(b *driven.StoreBuild) { b.Passages[3].Text = "" },
			want:   domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBuild()
			tt.mutate(&b)
			_, err := Build(b)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStore_SearchDimensionMismatch(t *testing.T) {
	s, err := Build(testBuild())
	require.NoError(t, err)

	_, err = s.Search(context.Background(), []float32{1, 0}, 3)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestStore_SearchCancelled(t *testing.T) {
	s, err := Build(testBuild())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Search(ctx, []float32{1, 0, 0}, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Info(t *testing.T) {
	s, err := Build(testBuild())
	require.NoError(t, err)

	info := s.WithGeneration("g1").Info()
	assert.Equal(t, "g1", info.Generation)
	assert.Equal(t, 3, info.Dimensions)
	assert.Equal(t, 4, info.Passages)
	assert.Equal(t, 2, info.Sources)
	assert.Equal(t, "nomic-embed-text", info.EmbeddingModel)
	assert.Empty(t, s.Generation())
}
