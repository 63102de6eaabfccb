package indexstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

func TestRepository_LoadEmpty(t *testing.T) {
	r := NewRepository(t.TempDir())
	_, err := r.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)
}

func TestRepository_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r := NewRepository(dir)
	assert.Equal(t, dir, r.Location())

	saved, err := r.SaveStore(ctx, testBuild())
	require.NoError(t, err)
	require.NotEmpty(t, saved.Generation())

	loaded, err := r.LoadStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.Generation(), loaded.Generation())
	assert.Equal(t, saved.Len(), loaded.Len())

	_, err = os.Stat(filepath.Join(dir, LockFile))
	assert.True(t, os.IsNotExist(err), "lock must be released")
}

func TestRepository_KeepsNewestGenerations(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(t.TempDir())

	var gens []string
	for i := 0; i < RetainGenerations+2; i++ {
		s, err := r.SaveStore(ctx, testBuild())
		require.NoError(t, err)
		gens = append(gens, s.Generation())
	}

	onDisk, err := r.Generations()
	require.NoError(t, err)
	assert.Equal(t, gens[len(gens)-RetainGenerations:], onDisk)

	current, err := r.LoadStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, gens[len(gens)-1], current.Generation())
}

func TestRepository_LoadRetriesWhenCurrentMoves(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(t.TempDir())

	first, err := r.SaveStore(ctx, testBuild())
	require.NoError(t, err)

	// Another writer publishes while the first generation is being read,
	// and the first generation disappears.
	var second string
	original := loadGeneration
	defer func() { loadGeneration = original }()
	calls := 0
	loadGeneration = func(ctx context.Context, dir string, dim int) (*Store, error) {
		calls++
		if calls == 1 {
			s, err := r.SaveStore(ctx, testBuild())
			require.NoError(t, err)
			second = s.Generation()
			require.NoError(t, os.RemoveAll(r.generationDir(first.Generation())))
		}
		return original(ctx, dir, dim)
	}

	got, err := r.LoadStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got.Generation())
	assert.Equal(t, 2, calls)
}

func TestRepository_LoadFailsWhenCurrentIsStable(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(t.TempDir())

	saved, err := r.SaveStore(ctx, testBuild())
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(r.generationDir(saved.Generation()), IndexFile)))

	_, err = r.LoadStore(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreCorrupt)
}

func TestRepository_FailedSaveKeepsCurrent(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(t.TempDir())

	first, err := r.SaveStore(ctx, testBuild())
	require.NoError(t, err)

	b := testBuild()
	b.Passages[1].Embedding = []float32{1}
	_, err = r.Save(ctx, b)
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)

	current, err := r.LoadStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Generation(), current.Generation())
}

func TestRepository_Locked(t *testing.T) {
	host, _ := os.Hostname()

	tests := []struct {
		name   string
		holder string
	}{
		{"running writer", fmt.Sprintf("%d %s\n", os.Getpid(), host)},
		{"writer on another host", "999999999 build-agent-7\n"},
		{"unreadable holder", "garbage\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, LockFile), []byte(tt.holder), 0600))

			_, err := NewRepository(dir).Save(context.Background(), testBuild())
			assert.ErrorIs(t, err, domain.ErrStoreLocked)
		})
	}
}

func TestRepository_ReleasesLock(t *testing.T) {
	dir := t.TempDir()
	_, err := NewRepository(dir).Save(context.Background(), testBuild())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, LockFile))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStaleLock(t *testing.T) {
	host := "workstation"

	assert.False(t, staleLock("", host))
	assert.False(t, staleLock("abc workstation", host))
	assert.False(t, staleLock("-4 workstation", host))
	assert.False(t, staleLock(fmt.Sprintf("%d workstation", os.Getpid()), host))
	assert.False(t, staleLock("999999999 other-host", host))
}

func TestRepository_DimensionOption(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	_, err := NewRepository(dir).Save(ctx, testBuild())
	require.NoError(t, err)

	_, err = NewRepository(dir, WithDimensions(768)).Load(ctx)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}
