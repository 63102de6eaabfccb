package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p.IsValid() && p != AIProviderOllama
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// APIKeyEnv returns the environment variable holding the provider's key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case AIProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey is the API key for cloud providers, read from the environment.
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey is the API key for cloud providers, read from the environment.
	APIKey string

	// Temperature is the sampling temperature. Grounded answers use 0.
	Temperature float64

	// MaxTokens caps the generated answer length.
	MaxTokens int

	// Timeout bounds one generation call. Expiry maps to a FAILED answer.
	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// GateSettings holds the grounding gate thresholds.
type GateSettings struct {
	// DescriptiveThreshold is the minimum confidence for ordinary questions.
	DescriptiveThreshold float64

	// SpecThreshold is the minimum confidence for measurement questions.
	SpecThreshold float64
}

// ThresholdFor returns the threshold for a query class.
func (g GateSettings) ThresholdFor(specQuery bool) float64 {
	if specQuery {
		return g.SpecThreshold
	}
	return g.DescriptiveThreshold
}

// RetrievalSettings holds retriever configuration.
type RetrievalSettings struct {
	RetrieveOptions

	// CacheSize bounds the query cache. Zero disables caching.
	CacheSize int
}

// ChunkingSettings holds chunker configuration.
type ChunkingSettings struct {
	// MaxChars is the upper bound on chunk length in characters.
	MaxChars int

	// SentenceOverlap is how many sentences consecutive chunks share.
	SentenceOverlap int
}

// IngestSettings holds ingestion configuration.
type IngestSettings struct {
	// CorpusDir is the default directory ingested when no paths are given.
	CorpusDir string

	// Workers bounds the documents processed concurrently.
	Workers int

	// BatchSize is how many passages are embedded per provider call.
	BatchSize int
}

// RateLimitSettings bounds calls to cloud providers.
type RateLimitSettings struct {
	// RequestsPerSecond is the sustained rate. Zero disables limiting.
	RequestsPerSecond float64

	// Burst is the maximum burst size.
	Burst int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings
	Gate      GateSettings
	Chunking  ChunkingSettings
	Ingest    IngestSettings
	RateLimit RateLimitSettings

	// StoreDir is where index store generations are persisted.
	StoreDir string

	// LexiconPath points at the YAML lookup tables. Empty uses built-ins.
	LexiconPath string
}

// DefaultAppSettings returns settings with sensible defaults.
// Both providers default to a local Ollama so no API key is needed.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		LLM: LLMSettings{
			Provider:    AIProviderOllama,
			Model:       DefaultLLMModels()[AIProviderOllama],
			Temperature: 0.0,
			MaxTokens:   700,
			Timeout:     60 * time.Second,
		},
		Retrieval: RetrievalSettings{
			RetrieveOptions: DefaultRetrieveOptions(),
			CacheSize:       256,
		},
		Gate: GateSettings{
			DescriptiveThreshold: 0.45,
			SpecThreshold:        0.38,
		},
		Chunking: ChunkingSettings{
			MaxChars:        800,
			SentenceOverlap: 2,
		},
		Ingest: IngestSettings{
			CorpusDir: "data/raw",
			Workers:   4,
			BatchSize: 32,
		},
		RateLimit: RateLimitSettings{
			RequestsPerSecond: 5,
			Burst:             10,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "mistral:7b-instruct-q4_0",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
		AIProviderGemini:    "gemini-2.0-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds ingestion pipeline configuration.
// Uses generic map-based config so stages can be added without changing this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the standard clean, chunk, tag pipeline.
func DefaultPipelineConfig(chunking ChunkingSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"cleaner", "chunker", "tagger"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"max_chars":        chunking.MaxChars,
				"sentence_overlap": chunking.SentenceOverlap,
			},
		},
	}
}
