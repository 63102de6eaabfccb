package driven

import "github.com/custodia-labs/kurator/internal/core/domain"

// LexiconSource loads the lookup tables used by retrieval and the gate.
type LexiconSource interface {
	// Load returns the lexicon, falling back to defaults for missing tables.
	Load() (domain.Lexicon, error)
}
