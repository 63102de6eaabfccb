package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

func TestIndexRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	r := NewIndexRepository()

	_, err := r.Load(ctx)
	require.ErrorIs(t, err, domain.ErrStoreNotFound)

	p := domain.NewPassage("The GT3 revs to 9000 rpm.", "gt3.txt", domain.UnitParagraph, 0, 0)
	p.Embedding = []float32{1, 0}
	saved, err := r.Save(ctx, driven.StoreBuild{Passages: []domain.Passage{p}})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.Info().Generation)

	loaded, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.Info().Generation, loaded.Info().Generation)
	assert.Equal(t, ":memory:", r.Location())
}

func TestIndexRepository_FailedSaveKeepsCurrent(t *testing.T) {
	ctx := context.Background()
	r := NewIndexRepository()

	p := domain.NewPassage("text", "a.txt", domain.UnitParagraph, 0, 0)
	p.Embedding = []float32{0, 1}
	first, err := r.Save(ctx, driven.StoreBuild{Passages: []domain.Passage{p}})
	require.NoError(t, err)

	_, err = r.Save(ctx, driven.StoreBuild{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	loaded, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Info().Generation, loaded.Info().Generation)
}
