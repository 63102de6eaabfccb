package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/kurator/internal/adapters/driven/ai"
	"github.com/custodia-labs/kurator/internal/adapters/driven/config/file"
	"github.com/custodia-labs/kurator/internal/adapters/driven/storage/indexstore"
	"github.com/custodia-labs/kurator/internal/adapters/driving/cli"
	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/services"
	"github.com/custodia-labs/kurator/internal/logger"
	"github.com/custodia-labs/kurator/internal/parsers"
	"github.com/custodia-labs/kurator/internal/postprocessors"
)

// wireServices builds every service from the config file at configPath, or
// the default path when empty. Provider failures leave the settings usable
// and are reported through Services.Unavailable.
func wireServices(ctx context.Context, configPath string) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(configPath)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsSvc := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	storeDir, err := resolveStoreDir(settings.StoreDir)
	if err != nil {
		return nil, err
	}
	var repoOpts []indexstore.Option
	if dim, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		repoOpts = append(repoOpts, indexstore.WithDimensions(dim))
	}
	repo := indexstore.NewRepository(storeDir, repoOpts...)

	svc := &cli.Services{
		Settings: settingsSvc,
		Store:    repo,
		Datasets: file.Datasets{},
	}

	lexicon, err := file.NewLexiconFile(settings.LexiconPath).Load()
	if err != nil {
		return nil, fmt.Errorf("loading lexicon: %w", err)
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return nil, fmt.Errorf("opening prompts: %w", err)
	}

	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		logger.Debug("embedding provider unavailable: %v", err)
		svc.Unavailable = err
		return svc, nil
	}
	llm, err := ai.CreateLLMService(ctx, &settings.LLM)
	if err != nil {
		logger.Debug("generation provider unavailable: %v", err)
		svc.Unavailable = err
		return svc, nil
	}
	embedder = ai.NewRateLimitedEmbedding(embedder, settings.RateLimit)
	llm = ai.NewRateLimitedLLM(llm, settings.RateLimit)

	pipeline, err := postprocessors.NewDefaultPipeline(settings.Chunking, lexicon)
	if err != nil {
		return nil, fmt.Errorf("building passage pipeline: %w", err)
	}

	engine := services.NewEngine(services.EngineDeps{
		Repository: repo,
		Embedder:   embedder,
		LLM:        llm,
		Prompts:    prompts,
		Lexicon:    lexicon,
		Settings:   *settings,
	})

	svc.Ingest = services.NewIngestService(parsers.NewDefaultRegistry(), pipeline, embedder, repo, settings.Ingest)
	svc.Query = engine
	svc.Evaluation = services.NewEvaluationService(engine, engine, llm, prompts, settings.Retrieval.RetrieveOptions)
	return svc, nil
}

// resolveStoreDir returns dir, or ~/.kurator/store when empty.
func resolveStoreDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".kurator", "store"), nil
}
