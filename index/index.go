// Package index is the per-session document knowledge base: it extracts text
// from uploads, splits it into overlapping chunks, stores chunk embeddings in
// an in-memory tinySQL table, and answers nearest-neighbour queries.
package index

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	tinysql "github.com/SimonWaldherr/tinySQL"
)

// source and content are stored hex-encoded: tinySQL string literals are
// read byte by byte and do not survive multi-byte UTF-8.
const schema = "CREATE TABLE IF NOT EXISTS chunks (id INT, source TEXT, chunk_idx INT, content TEXT, embedding VECTOR)"

// Hit is one retrieved chunk.
type Hit struct {
	Source   string
	ChunkIdx int
	Content  string
	Score    float64
}

// Source summarizes one ingested document.
type Source struct {
	Name   string
	Chunks int
}

// Index holds chunk embeddings for one session. It is safe for concurrent use.
type Index struct {
	mu     sync.Mutex
	db     *tinysql.DB
	nextID int
	dim    int
}

// New creates an empty Index.
func New() (*Index, error) {
	idx := &Index{db: tinysql.NewDB()}
	if err := idx.init(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Load restores an Index from a snapshot written by Save.
func Load(path string) (*Index, error) {
	db, err := tinysql.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", path, err)
	}
	idx := &Index{db: db}
	if err := idx.init(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (x *Index) init() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.exec(schema); err != nil {
		return fmt.Errorf("create chunks table: %w", err)
	}
	x.nextID = x.maxIDLocked() + 1
	return nil
}

// Save writes a snapshot of the index to path.
func (x *Index) Save(path string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := tinysql.SaveToFile(x.db, path); err != nil {
		return fmt.Errorf("save index %s: %w", path, err)
	}
	return nil
}

// Len returns the number of stored chunks. A nil Index is empty.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	return max(x.scalar("SELECT COUNT(*) AS cnt FROM chunks", "cnt"), 0)
}

// Has reports whether chunks from source are present.
func (x *Index) Has(source string) bool {
	if x == nil {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.countLocked(source) > 0
}

// Sources lists the ingested documents ordered by name.
func (x *Index) Sources() []Source {
	if x == nil {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	var sources []Source
	err := x.query("SELECT source, COUNT(*) AS cnt FROM chunks GROUP BY source ORDER BY source", func(col column) {
		name, ok1 := col("source")
		cnt, ok2 := col("cnt")
		if ok1 && ok2 {
			sources = append(sources, Source{Name: decode(name), Chunks: toInt(cnt)})
		}
	})
	if err != nil {
		return nil
	}
	return sources
}

// Insert stores chunks of source with their embeddings. A chunk already
// stored for the same source is skipped, so inserting is a set union. On
// error the index is left as it was.
func (x *Index) Insert(source string, chunks []string, vecs [][]float32) error {
	if len(chunks) != len(vecs) {
		return fmt.Errorf("insert %s: %d chunks but %d embeddings", source, len(chunks), len(vecs))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	dim := x.dim
	for _, v := range vecs {
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), dim)
		}
	}

	firstID := x.nextID
	for i, v := range vecs {
		if x.containsLocked(source, chunks[i]) {
			continue
		}

		q := fmt.Sprintf(
			"INSERT INTO chunks VALUES (%d, '%s', %d, '%s', VEC_FROM_JSON('%s'))",
			x.nextID, encode(source), i, encode(chunks[i]), vecJSON(v),
		)
		if err := x.exec(q); err != nil {
			x.rollbackLocked(firstID)
			return fmt.Errorf("insert %s chunk %d: %w", source, i, err)
		}
		x.nextID++
	}
	if x.nextID > firstID {
		x.dim = dim
	}
	return nil
}

// rollbackLocked removes the rows inserted from id onwards.
func (x *Index) rollbackLocked(id int) {
	x.exec(fmt.Sprintf("DELETE FROM chunks WHERE id >= %d", id))
	x.nextID = id
}

// Search returns the k chunks most similar to vec by cosine similarity.
func (x *Index) Search(vec []float32, k int) ([]Hit, error) {
	if x == nil || k <= 0 {
		return nil, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dim != 0 && len(vec) != x.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), x.dim)
	}

	q := fmt.Sprintf(
		"SELECT content, source, chunk_idx, VEC_COSINE_SIMILARITY(embedding, VEC_FROM_JSON('%s')) AS score FROM chunks ORDER BY score DESC LIMIT %d",
		vecJSON(vec), k,
	)
	var hits []Hit
	err := x.query(q, func(col column) {
		content, ok := col("content")
		if !ok || content == nil {
			return
		}
		source, _ := col("source")
		chunkIdx, _ := col("chunk_idx")
		score, _ := col("score")
		hits = append(hits, Hit{
			Source:   decode(source),
			ChunkIdx: toInt(chunkIdx),
			Content:  decode(content),
			Score:    toFloat(score),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return hits, nil
}

// column reads one named column of the current result row.
type column func(name string) (any, bool)

func (x *Index) exec(q string) error {
	stmt, err := tinysql.ParseSQL(q)
	if err != nil {
		return err
	}
	_, err = tinysql.Execute(context.Background(), x.db, "default", stmt)
	return err
}

// query runs q and calls fn once per result row.
func (x *Index) query(q string, fn func(col column)) error {
	stmt, err := tinysql.ParseSQL(q)
	if err != nil {
		return err
	}
	rs, err := tinysql.Execute(context.Background(), x.db, "default", stmt)
	if err != nil {
		return err
	}
	if rs == nil {
		return nil
	}
	for _, row := range rs.Rows {
		fn(func(name string) (any, bool) {
			return tinysql.GetVal(row, name)
		})
	}
	return nil
}

// scalar returns the integer in column name of the first result row.
func (x *Index) scalar(q, name string) int {
	n, seen := -1, false
	err := x.query(q, func(col column) {
		if seen {
			return
		}
		seen = true
		if v, ok := col(name); ok && v != nil {
			n = toInt(v)
		}
	})
	if err != nil {
		return -1
	}
	return n
}

func (x *Index) countLocked(source string) int {
	return max(x.scalar(fmt.Sprintf("SELECT COUNT(*) AS cnt FROM chunks WHERE source = '%s'", encode(source)), "cnt"), 0)
}

func (x *Index) containsLocked(source, content string) bool {
	q := fmt.Sprintf("SELECT COUNT(*) AS cnt FROM chunks WHERE source = '%s' AND content = '%s'",
		encode(source), encode(content))
	return x.scalar(q, "cnt") > 0
}

func (x *Index) maxIDLocked() int {
	return x.scalar("SELECT MAX(id) AS mid FROM chunks", "mid")
}

func vecJSON(v []float32) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func encode(s string) string {
	return hex.EncodeToString([]byte(s))
}

func decode(v any) string {
	s := fmt.Sprint(v)
	b, err := hex.DecodeString(s)
	if err != nil {
		return s
	}
	return string(b)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
