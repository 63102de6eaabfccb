package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kurator/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/parsers"
	"github.com/custodia-labs/kurator/internal/postprocessors"
)

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

func defaultCorpus() map[string]string {
	return map[string]string{
		"specs.txt": "The 992 Carrera uses a 3.0 litre twin-turbo flat-six.\n\n" +
			"The GT3 has a naturally aspirated 4.0 litre engine. It revs to 9000 rpm.",
		"press/launch.md": "# 992 launch\n\nThe 992 generation was introduced in November 2018.",
		".git/config":     "ignored",
		"notes.xyz":       "unsupported",
	}
}

func newTestIngest(t *testing.T, embedder *mockEmbedder, repo *memory.IndexRepository) *IngestService {
	t.Helper()
	pipeline, err := postprocessors.NewDefaultPipeline(
		domain.ChunkingSettings{MaxChars: 200, SentenceOverlap: 1}, domain.DefaultLexicon())
	require.NoError(t, err)
	return NewIngestService(parsers.NewDefaultRegistry(), pipeline, embedder, repo,
		domain.IngestSettings{Workers: 2, BatchSize: 2})
}

func TestIngest_Full(t *testing.T) {
	root := writeCorpus(t, defaultCorpus())
	repo := memory.NewIndexRepository()
	svc := newTestIngest(t, &mockEmbedder{dims: 4}, repo)

	report, err := svc.Ingest(context.Background(), []string{root}, domain.IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"press/launch.md", "specs.txt"}, report.Processed)
	assert.Empty(t, report.Unchanged)
	assert.Empty(t, report.Failed)
	assert.NotEmpty(t, report.Generation)

	store, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.Passages, store.Len())
	assert.Equal(t, 4, store.Dimensions())
	assert.Equal(t, "mock-embed", store.Info().EmbeddingModel)

	sources := store.Sources()
	require.Len(t, sources, 2)
	assert.Equal(t, "press/launch.md", sources[0].SourceID)
	assert.Len(t, sources[1].ContentHash, 64)

	passages := store.Passages()
	for i := 1; i < len(passages); i++ {
		assert.LessOrEqual(t, passages[i-1].SourceID, passages[i].SourceID)
	}
	var tagged bool
	for _, p := range passages {
		if p.VariantTag == "GT3" {
			tagged = true
		}
	}
	assert.True(t, tagged)
}

func TestIngest_DeterministicAcrossWorkerCounts(t *testing.T) {
	root := writeCorpus(t, defaultCorpus())

	run := func(workers int) []string {
		repo := memory.NewIndexRepository()
		svc := newTestIngest(t, &mockEmbedder{dims: 4}, repo)
		_, err := svc.Ingest(context.Background(), []string{root}, domain.IngestOptions{Workers: workers})
		require.NoError(t, err)
		store, err := repo.Load(context.Background())
		require.NoError(t, err)
		var ids []string
		for _, p := range store.Passages() {
			ids = append(ids, p.ID())
		}
		return ids
	}

	assert.Equal(t, run(1), run(8))
}

func TestIngest_Incremental(t *testing.T) {
	root := writeCorpus(t, defaultCorpus())
	repo := memory.NewIndexRepository()
	embedder := &mockEmbedder{dims: 4}
	svc := newTestIngest(t, embedder, repo)

	_, err := svc.Ingest(context.Background(), []string{root}, domain.IngestOptions{})
	require.NoError(t, err)
	callsAfterFull := embedder.callCount()

	require.NoError(t, os.WriteFile(filepath.Join(root, "press", "launch.md"),
		[]byte("# 992 launch\n\nThe 992 was shown at the 2018 LA Auto Show."), 0o600))

	report, err := svc.Ingest(context.Background(), []string{root}, domain.IngestOptions{Incremental: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"press/launch.md"}, report.Processed)
	assert.Equal(t, []string{"specs.txt"}, report.Unchanged)
	assert.Equal(t, 1, embedder.callCount()-callsAfterFull)

	store, err := repo.Load(context.Background())
	require.NoError(t, err)
	var found bool
	for _, p := range store.Passages() {
		if p.SourceID == "press/launch.md" {
			assert.NotContains(t, p.Text, "November")
			found = true
		}
	}
	assert.True(t, found)
}

func TestIngest_IncrementalKeepsVanishedSources(t *testing.T) {
	root := writeCorpus(t, defaultCorpus())
	repo := memory.NewIndexRepository()
	svc := newTestIngest(t, &mockEmbedder{dims: 4}, repo)

	_, err := svc.Ingest(context.Background(), []string{root}, domain.IngestOptions{})
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(root, "specs.txt")))

	report, err := svc.Ingest(context.Background(), []string{root}, domain.IngestOptions{Incremental: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"press/launch.md", "specs.txt"}, report.Unchanged)
	assert.Empty(t, report.Processed)

	store, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.Sources(), 2)
}

func TestIngest_IncrementalWithoutStoreRunsFull(t *testing.T) {
	root := writeCorpus(t, defaultCorpus())
	svc := newTestIngest(t, &mockEmbedder{dims: 4}, memory.NewIndexRepository())

	report, err := svc.Ingest(context.Background(), []string{root}, domain.IngestOptions{Incremental: true})
	require.NoError(t, err)
	assert.Len(t, report.Processed, 2)
}

func TestIngest_ModelChangeForcesFull(t *testing.T) {
	root := writeCorpus(t, defaultCorpus())
	repo := memory.NewIndexRepository()

	_, err := newTestIngest(t, &mockEmbedder{dims: 4, model: "old-model"}, repo).
		Ingest(context.Background(), []string{root}, domain.IngestOptions{})
	require.NoError(t, err)

	report, err := newTestIngest(t, &mockEmbedder{dims: 4, model: "new-model"}, repo).
		Ingest(context.Background(), []string{root}, domain.IngestOptions{Incremental: true})
	require.NoError(t, err)
	assert.Len(t, report.Processed, 2)
	assert.Empty(t, report.Unchanged)
}

func TestIngest_ExplicitUnsupportedFileIsReported(t *testing.T) {
	root := writeCorpus(t, defaultCorpus())
	svc := newTestIngest(t, &mockEmbedder{dims: 4}, memory.NewIndexRepository())

	report, err := svc.Ingest(context.Background(),
		[]string{filepath.Join(root, "specs.txt"), filepath.Join(root, "notes.xyz")}, domain.IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"specs.txt"}, report.Processed)
	assert.Contains(t, report.Failed, "notes.xyz")
}

func TestIngest_EmbeddingFailure(t *testing.T) {
	root := writeCorpus(t, defaultCorpus())
	repo := memory.NewIndexRepository()
	svc := newTestIngest(t, &mockEmbedder{dims: 4, err: errors.New("ollama down")}, repo)

	report, err := svc.Ingest(context.Background(), []string{root}, domain.IngestOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	require.NotNil(t, report)
	assert.Len(t, report.Failed, 2)
	assert.Contains(t, report.Failed["specs.txt"], "ollama down")

	_, err = repo.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)
}

func TestIngest_Errors(t *testing.T) {
	svc := newTestIngest(t, &mockEmbedder{dims: 4}, memory.NewIndexRepository())

	_, err := svc.Ingest(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, domain.IngestOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	empty := writeCorpus(t, map[string]string{"only.xyz": "x"})
	_, err = svc.Ingest(context.Background(), []string{empty}, domain.IngestOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngest_Cancelled(t *testing.T) {
	root := writeCorpus(t, defaultCorpus())
	svc := newTestIngest(t, &mockEmbedder{dims: 4}, memory.NewIndexRepository())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Ingest(ctx, []string{root}, domain.IngestOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSortPassages(t *testing.T) {
	ps := []domain.Passage{
		domain.NewPassage("c", "b.txt", domain.UnitParagraph, 0, 0),
		domain.NewPassage("b", "a.txt", domain.UnitParagraph, 1, 0),
		domain.NewPassage("a", "a.txt", domain.UnitParagraph, 0, 1),
		domain.NewPassage("d", "a.txt", domain.UnitParagraph, 0, 0),
	}
	SortPassages(ps)
	var got []string
	for _, p := range ps {
		got = append(got, p.Text)
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, got)
}

func TestHashContent(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashContent(nil))
}
