package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/insight/embedding"
	"github.com/tailored-agentic-units/insight/observability"
)

// EventIngest is emitted after a document has been added to an index.
const EventIngest observability.EventType = "index.ingest"

// Indexer builds and queries session indexes with a shared embedder.
type Indexer struct {
	cfg      Config
	splitter *Splitter
	embedder embedding.Embedder
	observer observability.Observer
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithObserver sets the observer that receives ingest events.
func WithObserver(o observability.Observer) Option {
	return func(ix *Indexer) { ix.observer = o }
}

// NewIndexer creates an Indexer. Zero fields of cfg take their defaults.
func NewIndexer(cfg Config, emb embedding.Embedder, opts ...Option) *Indexer {
	merged := DefaultConfig()
	merged.Merge(&cfg)

	ix := &Indexer{
		cfg:      merged,
		splitter: NewSplitter(merged.ChunkSize, merged.ChunkOverlap),
		embedder: emb,
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Config returns the effective configuration.
func (ix *Indexer) Config() Config {
	return ix.cfg
}

// Ingest splits text, embeds the chunks in batches, and adds them to idx.
// A nil idx yields a new Index. The returned index is the one that now holds
// the document; idx itself is never replaced or cleared.
func (ix *Indexer) Ingest(ctx context.Context, idx *Index, source, text string) (*Index, error) {
	chunks := ix.splitter.Split(text)
	if len(chunks) == 0 {
		return idx, fmt.Errorf("%w: %s", ErrEmptyDocument, source)
	}

	vecs := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += ix.cfg.BatchSize {
		end := min(i+ix.cfg.BatchSize, len(chunks))

		batch, err := ix.embedder.Embed(ctx, chunks[i:end])
		if err != nil {
			return idx, fmt.Errorf("embed batch %d: %w", i/ix.cfg.BatchSize, err)
		}
		vecs = append(vecs, batch...)
	}

	target := idx
	if target == nil {
		var err error
		if target, err = New(); err != nil {
			return idx, err
		}
	}

	if err := target.Insert(source, chunks, vecs); err != nil {
		return idx, err
	}

	observability.Emit(ctx, ix.observer, EventIngest, observability.LevelInfo, "index.Indexer", map[string]any{
		"source": source,
		"chunks": len(chunks),
		"total":  target.Len(),
	})
	return target, nil
}

// Query returns the contents of the k chunks nearest to query joined by a
// blank line. It returns "" for a nil or empty index or a blank query.
// k <= 0 selects the configured TopK.
func (ix *Indexer) Query(ctx context.Context, idx *Index, query string, k int) (string, error) {
	if idx.Len() == 0 || strings.TrimSpace(query) == "" {
		return "", nil
	}
	if k <= 0 {
		k = ix.cfg.TopK
	}

	vecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return "", fmt.Errorf("embed query: got %d vectors", len(vecs))
	}

	hits, err := idx.Search(vecs[0], k)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Content
	}
	return strings.Join(parts, "\n\n"), nil
}
