package response

import (
	"encoding/json"
	"fmt"
)

// EmbeddingsResponse is the OpenAI-compatible /embeddings result.
type EmbeddingsResponse struct {
	Object string `json:"object,omitempty"`
	Model  string `json:"model,omitempty"`
	Data   []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage *TokenUsage `json:"usage,omitempty"`
}

// Vectors returns the embeddings ordered by their reported index.
func (r *EmbeddingsResponse) Vectors() [][]float32 {
	out := make([][]float32, len(r.Data))
	for i, d := range r.Data {
		pos := d.Index
		if pos < 0 || pos >= len(out) || out[pos] != nil {
			pos = i
		}
		out[pos] = d.Embedding
	}
	return out
}

// ParseEmbeddings parses an embeddings response from JSON bytes.
func ParseEmbeddings(body []byte) (*EmbeddingsResponse, error) {
	var response EmbeddingsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse embeddings response: %w", err)
	}
	return &response, nil
}
