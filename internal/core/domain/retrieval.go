package domain

// RetrievalResult is one ranked passage produced for a query. Never persisted.
type RetrievalResult struct {
	// Passage is the matched passage.
	Passage Passage `json:"passage"`

	// RawSimilarity is the inner product between query and passage embeddings.
	RawSimilarity float64 `json:"raw_similarity"`

	// AdjustedScore is RawSimilarity plus any variant boost, capped at 1.0.
	AdjustedScore float64 `json:"adjusted_score"`

	// Rank is the position the index store returned this passage at.
	Rank int `json:"rank"`
}

// Boosted returns true if a variant boost was applied.
func (r RetrievalResult) Boosted() bool {
	return r.AdjustedScore > r.RawSimilarity
}

// RetrieveOptions are the tunable parameters of one retrieval.
type RetrieveOptions struct {
	// TopK is the maximum number of results returned.
	TopK int

	// MinSimilarity drops candidates scoring below it.
	MinSimilarity float64

	// MinChunkLength drops passages shorter than it (in characters).
	MinChunkLength int

	// VariantBoost is added to passages whose variant matches the query.
	VariantBoost float64
}

// DefaultRetrieveOptions returns the retrieval defaults.
func DefaultRetrieveOptions() RetrieveOptions {
	return RetrieveOptions{
		TopK:           10,
		MinSimilarity:  0.42,
		MinChunkLength: 50,
		VariantBoost:   0.18,
	}
}

// OversampleFactor is how many extra candidates are requested from the
// index store per result, to survive downstream filtering.
const OversampleFactor = 3

// MaxSimilarity is the upper bound of a similarity over unit vectors.
const MaxSimilarity = 1.0
