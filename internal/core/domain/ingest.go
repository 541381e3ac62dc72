package domain

// SplitterOverrides change splitting for a single ingestion.
// Zero values keep the configured defaults.
type SplitterOverrides struct {
	Strategy     string
	ChunkSize    int
	ChunkOverlap int
	MinChunkSize int
	MaxChunkSize int
}

// SplitterConfig is the resolved splitter configuration.
type SplitterConfig struct {
	Strategy     string
	ChunkSize    int
	ChunkOverlap int
	MinChunkSize int
	MaxChunkSize int
	MaxTokens    int
}

// Splitter defaults.
const (
	StrategyRecursive  = "recursive"
	StrategyStructural = "structural"

	DefaultChunkSize    = 5000
	DefaultChunkOverlap = 600
	DefaultMinChunkSize = 1000
	DefaultMaxChunkSize = 6000
	DefaultMaxTokens    = 1800
)

// DefaultSplitterConfig returns the recursive splitter defaults.
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		Strategy:     StrategyRecursive,
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		MinChunkSize: DefaultMinChunkSize,
		MaxChunkSize: DefaultMaxChunkSize,
		MaxTokens:    DefaultMaxTokens,
	}
}

// Apply returns c with non-zero override fields applied.
func (c SplitterConfig) Apply(o *SplitterOverrides) SplitterConfig {
	if o == nil {
		return c
	}
	if o.Strategy != "" {
		c.Strategy = o.Strategy
	}
	if o.ChunkSize > 0 {
		c.ChunkSize = o.ChunkSize
	}
	if o.ChunkOverlap > 0 {
		c.ChunkOverlap = o.ChunkOverlap
	}
	if o.MinChunkSize > 0 {
		c.MinChunkSize = o.MinChunkSize
	}
	if o.MaxChunkSize > 0 {
		c.MaxChunkSize = o.MaxChunkSize
	}
	return c
}

// IngestRequest is one file to ingest.
type IngestRequest struct {
	FilePath  string
	Metadata  map[string]any
	Overrides *SplitterOverrides
}

// IngestStatus is the outcome of a single ingestion.
type IngestStatus string

// Ingestion outcomes.
const (
	IngestSuccess IngestStatus = "success"
	IngestError   IngestStatus = "error"
	IngestSkipped IngestStatus = "skipped"
)

// IngestResult reports one file in a batch.
type IngestResult struct {
	FilePath   string
	Status     IngestStatus
	DocumentID string
	Filename   string
	Err        error
}

// BatchSummary counts batch outcomes.
type BatchSummary struct {
	Total     int
	Succeeded int
	Failed    int
}

// BatchIngestResult reports a batch ingestion.
type BatchIngestResult struct {
	Results []IngestResult
	Summary BatchSummary
}
