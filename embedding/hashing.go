package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashDimension is the vector length of the hashing embedder.
const DefaultHashDimension = 256

// Hashing is an offline embedder that maps lower-cased word tokens into a
// fixed number of buckets and L2-normalizes the counts. Texts sharing words
// score high under cosine similarity. Text without words maps to a fixed unit
// vector so similarity stays defined. Used when no hosted provider is
// configured.
type Hashing struct {
	dim int
}

// NewHashing creates a hashing embedder. dim <= 0 selects DefaultHashDimension.
func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	return &Hashing{dim: dim}
}

func (h *Hashing) Dimension() int { return h.dim }

func (h *Hashing) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *Hashing) vector(text string) []float32 {
	vec := make([]float32, h.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, w := range words {
		hasher := fnv.New32a()
		hasher.Write([]byte(w))
		vec[hasher.Sum32()%uint32(h.dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
