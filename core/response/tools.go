// Package response holds the shapes returned by the OpenAI-compatible model API.
package response

import (
	"encoding/json"
	"fmt"

	"github.com/tailored-agentic-units/insight/core/protocol"
)

// ToolsResponse represents a non-streaming chat completion that may carry
// tool calls requested by the model.
type ToolsResponse struct {
	ID      string      `json:"id,omitempty"`
	Object  string      `json:"object,omitempty"`
	Created int64       `json:"created,omitempty"`
	Model   string      `json:"model"`
	Choices []Choice    `json:"choices"`
	Usage   *TokenUsage `json:"usage,omitempty"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason,omitempty"`
}

// ChoiceMessage is the assistant message inside a Choice.
type ChoiceMessage struct {
	Role      string              `json:"role"`
	Content   string              `json:"content"`
	ToolCalls []protocol.ToolCall `json:"tool_calls,omitempty"`
}

// NewToolsResponse builds a single-choice response. Used by fakes and tests.
func NewToolsResponse(content string, calls ...protocol.ToolCall) *ToolsResponse {
	return &ToolsResponse{
		Choices: []Choice{{
			Message: ChoiceMessage{
				Role:      string(protocol.RoleAssistant),
				Content:   content,
				ToolCalls: calls,
			},
		}},
	}
}

// First returns the first choice, or false when the response is empty.
func (r *ToolsResponse) First() (ChoiceMessage, bool) {
	if r == nil || len(r.Choices) == 0 {
		return ChoiceMessage{}, false
	}
	return r.Choices[0].Message, true
}

// ParseTools parses a tools response from JSON bytes.
func ParseTools(body []byte) (*ToolsResponse, error) {
	var response ToolsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse tools response: %w", err)
	}
	return &response, nil
}
