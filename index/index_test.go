package index_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/tailored-agentic-units/insight/embedding"
	"github.com/tailored-agentic-units/insight/index"
	"github.com/tailored-agentic-units/insight/observability"
)

// countingEmbedder wraps the hashing embedder and records batch sizes.
type countingEmbedder struct {
	*embedding.Hashing
	mu      sync.Mutex
	batches []int
	err     error
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{Hashing: embedding.NewHashing(128)}
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batches = append(e.batches, len(texts))
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return e.Hashing.Embed(ctx, texts)
}

const (
	gardenDoc  = "Tomatoes need full sun and regular watering.\n\nPrune basil often so it keeps producing leaves."
	financeDoc = "Quarterly revenue grew eight percent in the northern region.\n\nOperating costs stayed flat year over year."
)

func newIndexer(emb embedding.Embedder, opts ...index.Option) *index.Indexer {
	return index.NewIndexer(index.Config{ChunkSize: 60, ChunkOverlap: 10}, emb, opts...)
}

func TestIndexer_IngestCreatesIndex(t *testing.T) {
	rec := &observability.Recorder{}
	ix := newIndexer(embedding.NewHashing(128), index.WithObserver(rec))

	idx, err := ix.Ingest(context.Background(), nil, "garden.txt", gardenDoc)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if idx == nil || idx.Len() != 2 {
		t.Fatalf("got index with %d chunks, want 2", idx.Len())
	}

	events := rec.Filter(index.EventIngest)
	if len(events) != 1 || events[0].Data["source"] != "garden.txt" {
		t.Errorf("got events %+v", events)
	}
}

func TestIndexer_IngestMergesIntoExisting(t *testing.T) {
	ix := newIndexer(embedding.NewHashing(128))
	ctx := context.Background()

	idx, _ := ix.Ingest(ctx, nil, "garden.txt", gardenDoc)
	merged, err := ix.Ingest(ctx, idx, "finance.txt", financeDoc)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if merged != idx {
		t.Error("ingest into an existing index returned a different index")
	}

	sources := idx.Sources()
	if len(sources) != 2 || sources[0].Name != "finance.txt" || sources[1].Name != "garden.txt" {
		t.Errorf("got sources %+v", sources)
	}
}

func TestIndexer_IngestOrderIndependent(t *testing.T) {
	ix := newIndexer(embedding.NewHashing(128))
	ctx := context.Background()

	ab, _ := ix.Ingest(ctx, nil, "garden.txt", gardenDoc)
	ab, _ = ix.Ingest(ctx, ab, "finance.txt", financeDoc)

	ba, _ := ix.Ingest(ctx, nil, "finance.txt", financeDoc)
	ba, _ = ix.Ingest(ctx, ba, "garden.txt", gardenDoc)

	if ab.Len() != ba.Len() {
		t.Fatalf("got %d vs %d chunks", ab.Len(), ba.Len())
	}

	all := func(idx *index.Index) []string {
		hits, err := idx.Search(mustEmbed(t, "anything"), idx.Len())
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		out := make([]string, len(hits))
		for i, h := range hits {
			out[i] = h.Content
		}
		slices.Sort(out)
		return out
	}

	if !slices.Equal(all(ab), all(ba)) {
		t.Error("ingest order changed the retrievable set")
	}
}

func TestIndexer_IngestSameSourceTwice(t *testing.T) {
	ix := newIndexer(embedding.NewHashing(128))
	ctx := context.Background()

	idx, _ := ix.Ingest(ctx, nil, "garden.txt", gardenDoc)
	idx, err := ix.Ingest(ctx, idx, "garden.txt", gardenDoc)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if idx.Len() != 2 {
		t.Errorf("got %d chunks after re-ingest, want 2", idx.Len())
	}
}

func TestIndex_InsertSkipsStoredChunks(t *testing.T) {
	idx, _ := index.New()

	if err := idx.Insert("a.txt", []string{"one", "two"}, [][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := idx.Insert("a.txt", []string{"two", "three"}, [][]float32{{0, 1}, {1, 1}}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if idx.Len() != 3 {
		t.Errorf("got %d chunks, want 3", idx.Len())
	}

	if err := idx.Insert("b.txt", []string{"one"}, [][]float32{{1, 0}}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if idx.Len() != 4 {
		t.Errorf("got %d chunks, want 4 (same text under another source)", idx.Len())
	}
}

func TestIndexer_IngestBatches(t *testing.T) {
	emb := newCountingEmbedder()
	ix := index.NewIndexer(index.Config{ChunkSize: 10, ChunkOverlap: 1, BatchSize: 4}, emb)

	text := strings.Repeat("abcd efgh ", 20)
	if _, err := ix.Ingest(context.Background(), nil, "doc.txt", text); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	for i, n := range emb.batches {
		if n > 4 {
			t.Errorf("batch %d has %d texts, want <= 4", i, n)
		}
	}
	if len(emb.batches) < 2 {
		t.Errorf("got %d batches, want several", len(emb.batches))
	}
}

func TestIndexer_IngestFailureLeavesIndex(t *testing.T) {
	ctx := context.Background()
	emb := newCountingEmbedder()
	ix := newIndexer(emb)

	idx, _ := ix.Ingest(ctx, nil, "garden.txt", gardenDoc)

	emb.err = errors.New("rate limited")
	got, err := ix.Ingest(ctx, idx, "finance.txt", financeDoc)
	if err == nil {
		t.Fatal("expected error")
	}
	if got != idx || idx.Len() != 2 {
		t.Errorf("failed ingest changed the index: %d chunks", idx.Len())
	}

	if _, err := ix.Ingest(ctx, idx, "blank.txt", "   "); !errors.Is(err, index.ErrEmptyDocument) {
		t.Errorf("got %v, want ErrEmptyDocument", err)
	}
}

func TestIndexer_Query(t *testing.T) {
	ix := newIndexer(embedding.NewHashing(128))
	ctx := context.Background()

	idx, _ := ix.Ingest(ctx, nil, "garden.txt", gardenDoc)
	idx, _ = ix.Ingest(ctx, idx, "finance.txt", financeDoc)

	got, err := ix.Query(ctx, idx, "How much did quarterly revenue grow in the northern region?", 1)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if !strings.Contains(got, "Quarterly revenue grew") {
		t.Errorf("got %q, want the revenue chunk", got)
	}

	got, _ = ix.Query(ctx, idx, "revenue basil", 0)
	if n := len(strings.Split(got, "\n\n")); n != 3 {
		t.Errorf("default k returned %d chunks, want 3", n)
	}
}

func TestIndexer_QueryEmpty(t *testing.T) {
	ix := newIndexer(embedding.NewHashing(128))
	ctx := context.Background()

	empty, err := index.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		name  string
		idx   *index.Index
		query string
	}{
		{"nil index", nil, "revenue"},
		{"empty index", empty, "revenue"},
		{"blank query", empty, " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ix.Query(ctx, tt.idx, tt.query, 3)
			if err != nil || got != "" {
				t.Errorf("got (%q, %v), want empty", got, err)
			}
		})
	}
}

func TestIndex_SaveLoad(t *testing.T) {
	ix := newIndexer(embedding.NewHashing(128))
	ctx := context.Background()

	idx, _ := ix.Ingest(ctx, nil, "garden.txt", gardenDoc)

	path := filepath.Join(t.TempDir(), "session.gob")
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := index.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Len() != idx.Len() {
		t.Errorf("got %d chunks, want %d", loaded.Len(), idx.Len())
	}

	loaded, err = ix.Ingest(ctx, loaded, "finance.txt", financeDoc)
	if err != nil {
		t.Fatalf("Ingest into loaded index failed: %v", err)
	}
	if loaded.Len() != 4 {
		t.Errorf("got %d chunks, want 4", loaded.Len())
	}

	if _, err := index.Load(filepath.Join(t.TempDir(), "missing.gob")); err == nil {
		t.Error("expected error loading a missing snapshot")
	}
}

func TestIndex_DimensionMismatch(t *testing.T) {
	idx, _ := index.New()

	if err := idx.Insert("a", []string{"x"}, [][]float32{{1, 0, 0}}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := idx.Insert("b", []string{"y"}, [][]float32{{1, 0}}); !errors.Is(err, index.ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
	if _, err := idx.Search([]float32{1}, 1); !errors.Is(err, index.ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
	if err := idx.Insert("c", []string{"x", "y"}, [][]float32{{1, 0, 0}}); err == nil {
		t.Error("expected error for chunk/embedding count mismatch")
	}
}

func TestIndex_QuotesInContent(t *testing.T) {
	idx, _ := index.New()
	if err := idx.Insert("o'brien.txt", []string{"It's Bob's"}, [][]float32{{1, 0}}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	hits, err := idx.Search([]float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Content != "It's Bob's" || hits[0].Source != "o'brien.txt" {
		t.Errorf("got %+v", hits)
	}
	if !idx.Has("o'brien.txt") {
		t.Error("Has returned false for an ingested source")
	}
}

func mustEmbed(t *testing.T, text string) []float32 {
	t.Helper()
	vecs, err := embedding.NewHashing(128).Embed(context.Background(), []string{text})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	return vecs[0]
}

func TestIndexer_NonASCIIRoundTrip(t *testing.T) {
	ix := newIndexer(embedding.NewHashing(128))
	ctx := context.Background()
	const (
		source = "résumé «final».txt"
		text   = "Ünïcödé 日本語 emoji 🎉 text “quoted”"
	)

	idx, err := ix.Ingest(ctx, nil, source, text)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	got, err := ix.Query(ctx, idx, "日本語 emoji", 1)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got != text {
		t.Errorf("Query = %q, want %q", got, text)
	}

	path := filepath.Join(t.TempDir(), "unicode.gob")
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := index.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	sources := loaded.Sources()
	if len(sources) != 1 || sources[0].Name != source {
		t.Errorf("Sources = %+v, want %q", sources, source)
	}
	if !loaded.Has(source) {
		t.Errorf("Has(%q) = false after reload", source)
	}

	// Re-ingesting identical text is recognised as already stored.
	if _, err := ix.Ingest(ctx, loaded, source, text); err != nil {
		t.Fatalf("re-Ingest failed: %v", err)
	}
	if loaded.Len() != 1 {
		t.Errorf("Len = %d after re-ingest, want 1", loaded.Len())
	}
}

func TestIndex_InsertFailureLeavesIndex(t *testing.T) {
	idx, _ := index.New()
	if err := idx.Insert("a.txt", []string{"x"}, [][]float32{{1, 0, 0}}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	err := idx.Insert("b.txt", []string{"y", "z"}, [][]float32{{0, 1, 0}, {1, 0}})
	if !errors.Is(err, index.ErrDimensionMismatch) {
		t.Fatalf("got %v, want ErrDimensionMismatch", err)
	}
	if idx.Len() != 1 || idx.Has("b.txt") {
		t.Errorf("failed insert left chunks behind: len=%d", idx.Len())
	}

	fresh, _ := index.New()
	if err := fresh.Insert("c.txt", []string{"p", "q"}, [][]float32{{1, 0}, {1, 0, 0}}); err == nil {
		t.Fatal("expected dimension error")
	}
	if err := fresh.Insert("c.txt", []string{"p"}, [][]float32{{1, 0, 0}}); err != nil {
		t.Errorf("rejected insert fixed the dimension: %v", err)
	}
}
