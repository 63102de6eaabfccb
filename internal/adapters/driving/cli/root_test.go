package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kurator/internal/connectors/filesystem"
	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// --- Mock implementations ---

type mockSettingsService struct {
	settings    *domain.AppSettings
	getErr      error
	setErr      error
	validateErr error
	set         map[string]string
}

func newMockSettings() *mockSettingsService {
	s := domain.DefaultAppSettings()
	s.Ingest.CorpusDir = "data/raw"
	return &mockSettingsService{settings: &s, set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, m.getErr
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"embedding.provider", "gate.spec_threshold", "retrieval.top_k"}
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) Validate(_ context.Context) error {
	return m.validateErr
}

type mockIngestService struct {
	report *domain.IngestReport
	err    error
	paths  [][]string
	opts   []domain.IngestOptions
}

func (m *mockIngestService) Ingest(
	_ context.Context, paths []string, opts domain.IngestOptions,
) (*domain.IngestReport, error) {
	m.paths = append(m.paths, paths)
	m.opts = append(m.opts, opts)
	return m.report, m.err
}

type mockQueryService struct {
	record   *domain.AnswerRecord
	results  []domain.RetrievalResult
	info     domain.StoreInfo
	err      error
	openErr  error
	opened   int
	asked    []string
	lastOpts domain.RetrieveOptions
}

func (m *mockQueryService) Open(_ context.Context) error {
	m.opened++
	return m.openErr
}

func (m *mockQueryService) Answer(_ context.Context, q string) (*domain.AnswerRecord, error) {
	m.asked = append(m.asked, q)
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

func (m *mockQueryService) Retrieve(
	_ context.Context, _ string, opts domain.RetrieveOptions,
) ([]domain.RetrievalResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockQueryService) RetrieveOptions() domain.RetrieveOptions {
	return domain.DefaultRetrieveOptions()
}

func (m *mockQueryService) Reload(_ context.Context) (domain.StoreInfo, error) {
	return m.info, m.err
}

func (m *mockQueryService) Info() (domain.StoreInfo, error) {
	return m.info, nil
}

type mockEvaluationService struct {
	report    *domain.EvalReport
	err       error
	questions []domain.EvalQuestion
	opts      domain.EvalOptions
}

func (m *mockEvaluationService) Evaluate(
	_ context.Context, questions []domain.EvalQuestion, opts domain.EvalOptions,
) (*domain.EvalReport, error) {
	m.questions = questions
	m.opts = opts
	return m.report, m.err
}

type mockIndexStore struct {
	info    domain.StoreInfo
	sources []domain.SourceRecord
}

func (m *mockIndexStore) Search(_ context.Context, _ []float32, _ int) ([]driven.SearchHit, error) {
	return nil, nil
}

func (m *mockIndexStore) Passages() []domain.Passage     { return nil }
func (m *mockIndexStore) Sources() []domain.SourceRecord { return m.sources }
func (m *mockIndexStore) Info() domain.StoreInfo         { return m.info }
func (m *mockIndexStore) Dimensions() int                { return m.info.Dimensions }
func (m *mockIndexStore) Len() int                       { return m.info.Passages }

type mockStoreInspector struct {
	store driven.IndexStore
	err   error
	gens  []string
}

func (m *mockStoreInspector) Load(_ context.Context) (driven.IndexStore, error) {
	return m.store, m.err
}

func (m *mockStoreInspector) Generations() ([]string, error) {
	return m.gens, nil
}

func (m *mockStoreInspector) Location() string {
	return "/tmp/kurator/store"
}

type mockDatasetLoader struct {
	questions []domain.EvalQuestion
	err       error
	path      string
}

func (m *mockDatasetLoader) Load(path string) ([]domain.EvalQuestion, error) {
	m.path = path
	return m.questions, m.err
}

// fakeWatcher emits the configured batches and then closes.
type fakeWatcher struct {
	batches  [][]string
	err      error
	closed   bool
	debounce time.Duration
}

func (f *fakeWatcher) Watch(_ context.Context) (<-chan []string, error) {
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan []string, len(f.batches))
	for _, b := range f.batches {
		ch <- b
	}
	close(ch)
	return ch, nil
}

func (f *fakeWatcher) Close() error {
	f.closed = true
	return nil
}

// --- Helpers ---

// setupTestServices wires svc through the services loader for one test.
func setupTestServices(t *testing.T, svc *Services) {
	t.Helper()
	SetServicesLoader(func(context.Context, string) (*Services, error) {
		return svc, nil
	})
	t.Cleanup(func() {
		SetServicesLoader(nil)
		applyServices(&Services{})
		resetFlags()
	})
}

// resetFlags restores every command flag variable to its default.
func resetFlags() {
	verbose = false
	envFile = ".env"
	configPath = ""
	askJSON = false
	retrieveTopK = 0
	retrieveMinSimilarity = -1
	retrieveJSON = false
	ingestIncremental = false
	ingestWorkers = 0
	ingestWatch = false
	ingestDebounce = filesystem.DefaultDebounce
	ingestJSON = false
	evalDataset = ""
	evalAnswers = false
	evalJudge = false
	evalJSON = false
	storeInfoJSON = false
	storeInfoFiles = false
	serveAddr = "127.0.0.1:8080"
	serveCORSOrigins = nil
	chatPlain = false
}

// runCommand executes the root command with args and returns stdout and stderr.
func runCommand(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// runCommandFunc runs fn with the root command's output captured.
func runCommandFunc(t *testing.T, fn func() error) (string, string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := fn()
	return stdout.String(), stderr.String(), err
}

// --- Tests ---

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "kurator", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"ask", "retrieve", "ingest", "eval", "chat", "serve", "mcp", "settings", "store", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestSetup_LoaderError(t *testing.T) {
	SetServicesLoader(func(context.Context, string) (*Services, error) {
		return nil, errors.New("config unreadable")
	})
	defer SetServicesLoader(nil)

	_, _, err := runCommand(t, context.Background(), "settings", "keys")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "config unreadable")
}

func TestSetup_VersionSkipsServices(t *testing.T) {
	called := false
	SetServicesLoader(func(context.Context, string) (*Services, error) {
		called = true
		return &Services{}, nil
	})
	defer SetServicesLoader(nil)

	_, _, err := runCommand(t, context.Background(), "version")

	require.NoError(t, err)
	assert.False(t, called)
}

func TestSetup_PassesConfigPath(t *testing.T) {
	var got string
	SetServicesLoader(func(_ context.Context, path string) (*Services, error) {
		got = path
		return &Services{Settings: newMockSettings()}, nil
	})
	defer func() {
		SetServicesLoader(nil)
		applyServices(&Services{})
		resetFlags()
	}()

	_, _, err := runCommand(t, context.Background(), "settings", "keys", "--config", "/etc/kurator/config.toml")

	require.NoError(t, err)
	assert.Equal(t, "/etc/kurator/config.toml", got)
}

func TestSetup_MissingEnvFileIsIgnored(t *testing.T) {
	setupTestServices(t, &Services{Settings: newMockSettings()})

	_, _, err := runCommand(t, context.Background(), "settings", "keys", "--env-file", "does-not-exist.env")

	assert.NoError(t, err)
}

func TestNotConfigured(t *testing.T) {
	defer applyServices(&Services{})

	assert.EqualError(t, notConfigured("query"), "query service not configured")

	cause := errors.New("OPENAI_API_KEY is not set")
	applyServices(&Services{Unavailable: cause})

	err := notConfigured("query")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "query service not configured")
}

func TestOpenQueryService(t *testing.T) {
	defer applyServices(&Services{})

	t.Run("not configured", func(t *testing.T) {
		applyServices(&Services{})

		_, err := openQueryService(context.Background())

		assert.Error(t, err)
	})

	t.Run("store missing adds hint", func(t *testing.T) {
		applyServices(&Services{Query: &mockQueryService{openErr: domain.ErrStoreNotFound}})

		_, err := openQueryService(context.Background())

		assert.ErrorIs(t, err, domain.ErrStoreNotFound)
		assert.Contains(t, err.Error(), "kurator ingest")
	})

	t.Run("mismatch passes through", func(t *testing.T) {
		applyServices(&Services{Query: &mockQueryService{openErr: domain.ErrDimensionMismatch}})

		_, err := openQueryService(context.Background())

		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
		assert.False(t, strings.Contains(err.Error(), "kurator ingest"))
	})

	t.Run("opens once per call", func(t *testing.T) {
		query := &mockQueryService{}
		applyServices(&Services{Query: query})

		got, err := openQueryService(context.Background())

		require.NoError(t, err)
		assert.Equal(t, query, got)
		assert.Equal(t, 1, query.opened)
	})
}
