package protocol

import "fmt"

// WireMessage is the projection of a Message the model API accepts: role,
// content, name, tool_call_id and tool_calls. Export-only fields such as
// attached files and image paths never reach the wire.
type WireMessage struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// Wire returns the API projection of m.
func (m Message) Wire() WireMessage {
	return WireMessage{
		Role:       m.Role,
		Content:    m.Content,
		Name:       m.Name,
		ToolCallID: m.ToolCallID,
		ToolCalls:  m.ToolCalls,
	}
}

// ToWire projects a transcript for the model API.
func ToWire(msgs []Message) []WireMessage {
	out := make([]WireMessage, len(msgs))
	for i, m := range msgs {
		out[i] = m.Wire()
	}
	return out
}

// CheckPairing verifies that every tool message directly follows the assistant
// message whose tool call it answers, in call order, with a matching ID.
func CheckPairing(msgs []Message) error {
	var pending []ToolCall

	for i, m := range msgs {
		switch {
		case m.Role == RoleTool:
			if len(pending) == 0 {
				return fmt.Errorf("%w: message %d answers %q with no open call", ErrUnpairedTool, i, m.ToolCallID)
			}
			if pending[0].ID != m.ToolCallID {
				return fmt.Errorf("%w: message %d answers %q, expected %q", ErrUnpairedTool, i, m.ToolCallID, pending[0].ID)
			}
			pending = pending[1:]
		case m.Role == RoleAssistant && len(m.ToolCalls) > 0:
			pending = m.ToolCalls
		default:
			pending = nil
		}
	}
	return nil
}
