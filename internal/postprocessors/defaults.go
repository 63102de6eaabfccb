package postprocessors

import (
	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
	"github.com/custodia-labs/kurator/internal/postprocessors/chunker"
	"github.com/custodia-labs/kurator/internal/postprocessors/cleaner"
	"github.com/custodia-labs/kurator/internal/postprocessors/tagger"
)

// RegisterDefaults registers all built-in processors with the registry.
// The tagger uses the given lexicon's variant vocabulary.
func RegisterDefaults(r *Registry, lexicon domain.Lexicon) {
	r.Register("cleaner", StageText, func(map[string]any) (driven.PassageProcessor, error) {
		return cleaner.New(), nil
	})
	r.Register("chunker", StageSplit, buildChunker)
	r.Register("tagger", StagePassage, func(map[string]any) (driven.PassageProcessor, error) {
		return tagger.New(lexicon), nil
	})
}

// NewDefaultPipeline builds the clean, chunk, tag pipeline for the given settings.
func NewDefaultPipeline(chunking domain.ChunkingSettings, lexicon domain.Lexicon) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r, lexicon)
	return r.BuildPipeline(domain.DefaultPipelineConfig(chunking))
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - max_chars (int): Upper bound on chunk length (default: 800)
//   - sentence_overlap (int): Sentences shared by consecutive chunks (default: 2)
func buildChunker(cfg map[string]any) (driven.PassageProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size, ok := getIntFromConfig(cfg, "max_chars"); ok {
			opts = append(opts, chunker.WithMaxChars(size))
		}
		if overlap, ok := getIntFromConfig(cfg, "sentence_overlap"); ok {
			opts = append(opts, chunker.WithSentenceOverlap(overlap))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
