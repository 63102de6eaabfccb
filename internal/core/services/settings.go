package services

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
	"github.com/custodia-labs/kurator/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyEmbedProvider        = "embedding.provider"
	keyEmbedModel           = "embedding.model"
	keyEmbedBaseURL         = "embedding.base_url"
	keyLLMProvider          = "llm.provider"
	keyLLMModel             = "llm.model"
	keyLLMBaseURL           = "llm.base_url"
	keyLLMTemperature       = "llm.temperature"
	keyLLMMaxTokens         = "llm.max_tokens"
	keyLLMTimeout           = "llm.timeout_seconds"
	keyTopK                 = "retrieval.top_k"
	keyMinSimilarity        = "retrieval.min_similarity"
	keyMinChunkLength       = "retrieval.min_chunk_length"
	keyVariantBoost         = "retrieval.variant_boost"
	keyCacheSize            = "retrieval.cache_size"
	keyDescriptiveThreshold = "gate.descriptive_threshold"
	keySpecThreshold        = "gate.spec_threshold"
	keyMaxChars             = "chunking.max_chars"
	keySentenceOverlap      = "chunking.sentence_overlap"
	keyWorkers              = "ingest.workers"
	keyBatchSize            = "ingest.batch_size"
	keyCorpusDir            = "ingest.corpus_dir"
	keyStoreDir             = "store.dir"
	keyLexiconPath          = "lexicon.path"
	keyRateRPS              = "ratelimit.requests_per_second"
	keyRateBurst            = "ratelimit.burst"
	keyPipelineProcessors   = "pipeline.processors"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindProvider
)

// settingKinds lists every key Set accepts and how its value is parsed.
var settingKinds = map[string]valueKind{
	keyEmbedProvider:        kindProvider,
	keyEmbedModel:           kindString,
	keyEmbedBaseURL:         kindString,
	keyLLMProvider:          kindProvider,
	keyLLMModel:             kindString,
	keyLLMBaseURL:           kindString,
	keyLLMTemperature:       kindFloat,
	keyLLMMaxTokens:         kindInt,
	keyLLMTimeout:           kindInt,
	keyTopK:                 kindInt,
	keyMinSimilarity:        kindFloat,
	keyMinChunkLength:       kindInt,
	keyVariantBoost:         kindFloat,
	keyCacheSize:            kindInt,
	keyDescriptiveThreshold: kindFloat,
	keySpecThreshold:        kindFloat,
	keyMaxChars:             kindInt,
	keySentenceOverlap:      kindInt,
	keyWorkers:              kindInt,
	keyBatchSize:            kindInt,
	keyCorpusDir:            kindString,
	keyStoreDir:             kindString,
	keyLexiconPath:          kindString,
	keyRateRPS:              kindFloat,
	keyRateBurst:            kindInt,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// The aiValidator is optional; without it Validate only checks ranges.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. API keys are read from the
// environment variable of the configured provider.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, d.LLM.Provider),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			Temperature: s.getFloat(keyLLMTemperature, d.LLM.Temperature),
			MaxTokens:   s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
			Timeout:     time.Duration(s.getInt(keyLLMTimeout, int(d.LLM.Timeout/time.Second))) * time.Second,
		},
		Retrieval: domain.RetrievalSettings{
			RetrieveOptions: domain.RetrieveOptions{
				TopK:           s.getInt(keyTopK, d.Retrieval.TopK),
				MinSimilarity:  s.getFloat(keyMinSimilarity, d.Retrieval.MinSimilarity),
				MinChunkLength: s.getInt(keyMinChunkLength, d.Retrieval.MinChunkLength),
				VariantBoost:   s.getFloat(keyVariantBoost, d.Retrieval.VariantBoost),
			},
			CacheSize: s.getInt(keyCacheSize, d.Retrieval.CacheSize),
		},
		Gate: domain.GateSettings{
			DescriptiveThreshold: s.getFloat(keyDescriptiveThreshold, d.Gate.DescriptiveThreshold),
			SpecThreshold:        s.getFloat(keySpecThreshold, d.Gate.SpecThreshold),
		},
		Chunking: domain.ChunkingSettings{
			MaxChars:        s.getInt(keyMaxChars, d.Chunking.MaxChars),
			SentenceOverlap: s.getInt(keySentenceOverlap, d.Chunking.SentenceOverlap),
		},
		Ingest: domain.IngestSettings{
			CorpusDir: s.getString(keyCorpusDir, d.Ingest.CorpusDir),
			Workers:   s.getInt(keyWorkers, d.Ingest.Workers),
			BatchSize: s.getInt(keyBatchSize, d.Ingest.BatchSize),
		},
		RateLimit: domain.RateLimitSettings{
			RequestsPerSecond: s.getFloat(keyRateRPS, d.RateLimit.RequestsPerSecond),
			Burst:             s.getInt(keyRateBurst, d.RateLimit.Burst),
		},
		StoreDir:    s.getString(keyStoreDir, d.StoreDir),
		LexiconPath: s.configStore.GetString(keyLexiconPath),
	}

	// A provider switch without a model picks that provider's default.
	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])

	settings.Embedding.APIKey = s.apiKey(settings.Embedding.Provider)
	settings.LLM.APIKey = s.apiKey(settings.LLM.Provider)

	return settings, nil
}

// Set parses value according to key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case kindString:
		parsed = value
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindProvider:
		provider := domain.AIProvider(strings.ToLower(value))
		if !provider.IsValid() {
			return fmt.Errorf("%w: %s: %s", domain.ErrInvalidProvider, key, value)
		}
		if key == keyEmbedProvider && !supportsEmbeddings(provider) {
			return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidProvider, provider)
		}
		parsed = provider.String()
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every recognised setting key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Validate checks setting ranges, then pings the configured providers
// when a validator is available.
func (s *SettingsService) Validate(ctx context.Context) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := validateRanges(settings); err != nil {
		return err
	}

	if !supportsEmbeddings(settings.Embedding.Provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings",
			domain.ErrInvalidProvider, settings.Embedding.Provider)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s requires %s",
			domain.ErrInvalidProvider, settings.Embedding.Provider, settings.Embedding.Provider.APIKeyEnv())
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: llm provider %s requires %s",
			domain.ErrInvalidProvider, settings.LLM.Provider, settings.LLM.Provider.APIKeyEnv())
	}

	if s.aiValidator == nil {
		return nil
	}
	if err := s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding); err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(ctx, &settings.LLM)
}

// GetPipelineConfig returns the ingestion pipeline configuration.
// The processor list can be overridden with pipeline.processors.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	settings, _ := s.Get()
	cfg := domain.DefaultPipelineConfig(settings.Chunking)
	if processors := s.configStore.GetStringSlice(keyPipelineProcessors); len(processors) > 0 {
		cfg.Processors = processors
	}
	return cfg
}

func validateRanges(a *domain.AppSettings) error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{a.Retrieval.TopK > 0, "retrieval.top_k must be positive"},
		{inUnit(a.Retrieval.MinSimilarity), "retrieval.min_similarity must be within [0, 1]"},
		{a.Retrieval.MinChunkLength >= 0, "retrieval.min_chunk_length must not be negative"},
		{inUnit(a.Retrieval.VariantBoost), "retrieval.variant_boost must be within [0, 1]"},
		{a.Retrieval.CacheSize >= 0, "retrieval.cache_size must not be negative"},
		{inUnit(a.Gate.DescriptiveThreshold), "gate.descriptive_threshold must be within [0, 1]"},
		{inUnit(a.Gate.SpecThreshold), "gate.spec_threshold must be within [0, 1]"},
		{a.Chunking.MaxChars > 0, "chunking.max_chars must be positive"},
		{a.Chunking.SentenceOverlap >= 0, "chunking.sentence_overlap must not be negative"},
		{a.Ingest.Workers > 0, "ingest.workers must be positive"},
		{a.Ingest.BatchSize > 0, "ingest.batch_size must be positive"},
		{a.LLM.Temperature >= 0 && a.LLM.Temperature <= 2, "llm.temperature must be within [0, 2]"},
		{a.LLM.MaxTokens > 0, "llm.max_tokens must be positive"},
		{a.LLM.Timeout > 0, "llm.timeout_seconds must be positive"},
		{a.RateLimit.RequestsPerSecond >= 0, "ratelimit.requests_per_second must not be negative"},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, c.msg)
		}
	}
	return nil
}

func inUnit(f float64) bool {
	return f >= 0 && f <= 1
}

func supportsEmbeddings(p domain.AIProvider) bool {
	for _, candidate := range domain.AllEmbeddingProviders() {
		if candidate == p {
			return true
		}
	}
	return false
}

// Helper methods for reading config with defaults.

func (s *SettingsService) apiKey(p domain.AIProvider) string {
	env := p.APIKeyEnv()
	if env == "" {
		return ""
	}
	return s.getenv(env)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
