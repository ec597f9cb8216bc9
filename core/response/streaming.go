package response

import (
	"encoding/json"
	"fmt"
)

// StreamingChunk is one server-sent delta of a streamed completion.
type StreamingChunk struct {
	ID      string `json:"id,omitempty"`
	Object  string `json:"object,omitempty"`
	Created int64  `json:"created,omitempty"`
	Model   string `json:"model,omitempty"`
	Choices []struct {
		Index int `json:"index"`
		Delta struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content,omitempty"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason,omitempty"`
	} `json:"choices"`
}

// Content returns the text delta of the first choice.
func (c *StreamingChunk) Content() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Delta.Content
}

// ParseStreamingChunk decodes the data payload of a single stream event.
func ParseStreamingChunk(data []byte) (*StreamingChunk, error) {
	var chunk StreamingChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return nil, fmt.Errorf("failed to parse streaming chunk: %w", err)
	}
	return &chunk, nil
}
