package index

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultTopK         = 3
	DefaultBatchSize    = 16
)

// Config holds chunking and retrieval parameters.
type Config struct {
	ChunkSize    int `json:"chunk_size,omitempty"`
	ChunkOverlap int `json:"chunk_overlap,omitempty"`
	TopK         int `json:"top_k,omitempty"`
	BatchSize    int `json:"batch_size,omitempty"`

	// SnapshotDir, when set, receives one snapshot file per session index
	// after every ingest.
	SnapshotDir string `json:"snapshot_dir,omitempty"`
}

// DefaultConfig returns the standard chunking and retrieval parameters.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		TopK:         DefaultTopK,
		BatchSize:    DefaultBatchSize,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.ChunkSize > 0 {
		c.ChunkSize = source.ChunkSize
	}
	if source.ChunkOverlap > 0 {
		c.ChunkOverlap = source.ChunkOverlap
	}
	if source.TopK > 0 {
		c.TopK = source.TopK
	}
	if source.BatchSize > 0 {
		c.BatchSize = source.BatchSize
	}
	if source.SnapshotDir != "" {
		c.SnapshotDir = source.SnapshotDir
	}
}
