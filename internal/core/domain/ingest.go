package domain

import "time"

// IngestOptions control one ingestion run.
type IngestOptions struct {
	// Incremental keeps unchanged sources from the current generation and
	// only processes new or modified ones.
	Incremental bool

	// Workers overrides the configured parallelism when positive.
	Workers int
}

// SourceRecord is the ingestion manifest entry for one source document.
type SourceRecord struct {
	SourceID    string
	Path        string
	ContentHash string
	Passages    int
	IngestedAt  time.Time
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// Generation is the identifier of the persisted store generation.
	Generation string `json:"generation"`

	// Processed lists sources parsed and embedded in this run.
	Processed []string `json:"processed"`

	// Unchanged lists sources carried over from the previous generation.
	Unchanged []string `json:"unchanged"`

	// Failed maps sources that could not be ingested to the reason.
	Failed map[string]string `json:"failed,omitempty"`

	// Passages is the total passage count of the new generation.
	Passages int `json:"passages"`

	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration_ns"`
}

// StoreInfo describes a persisted index store generation.
type StoreInfo struct {
	Generation     string    `json:"generation"`
	Dimensions     int       `json:"dimensions"`
	Passages       int       `json:"passages"`
	Sources        int       `json:"sources"`
	EmbeddingModel string    `json:"embedding_model"`
	CreatedAt      time.Time `json:"created_at"`
}
