// Package protocol defines the conversation types shared by every layer of the
// assistant: roles, the role-discriminated Message, tool calls, and the wire
// projection sent to the model API.
package protocol

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// IsValid reports whether r is one of the four known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// ToolCall represents a tool invocation in conversation history.
// Fields are flat (ID, Name, Arguments) for direct use across the module.
// UnmarshalJSON transparently handles the nested LLM API format
// (function.name, function.arguments) so provider responses decode correctly.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewToolCall creates a ToolCall from its identifier, tool name, and raw JSON arguments.
func NewToolCall(id, name, arguments string) ToolCall {
	return ToolCall{ID: id, Name: name, Arguments: arguments}
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// MarshalJSON serializes to the nested LLM API format ({id, type, function: {name, arguments}}).
func (tc ToolCall) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string       `json:"id"`
		Type     string       `json:"type"`
		Function wireFunction `json:"function"`
	}{
		ID:       tc.ID,
		Type:     "function",
		Function: wireFunction{Name: tc.Name, Arguments: tc.Arguments},
	})
}

// UnmarshalJSON accepts both the nested LLM API format and the flat format.
func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	var nested struct {
		ID       string       `json:"id"`
		Function wireFunction `json:"function"`
	}
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}

	if nested.Function.Name != "" {
		tc.ID = nested.ID
		tc.Name = nested.Function.Name
		tc.Arguments = nested.Function.Arguments
		return nil
	}

	type plain ToolCall
	return json.Unmarshal(data, (*plain)(tc))
}

// Message is a single conversation entry. Which optional fields are allowed
// depends on Role:
//
//   - user: Files lists the uploaded documents attached to the prompt.
//   - assistant: ToolCalls is set when the model asked for a tool instead of
//     answering; Content may then be empty.
//   - tool: ToolCallID and Name identify the call being answered, Content is
//     the result text, and ImagePath points at a generated artifact.
//
// Validate enforces these rules. The JSON form is the export format; use Wire
// to obtain the subset the model API accepts.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	Files      []string   `json:"files,omitempty"`
	ImagePath  string     `json:"image_path,omitempty"`
}

// NewMessage creates a Message with the given role and content.
//
// Example:
//
//	msg := protocol.NewMessage(protocol.RoleUser, "Hello, world!")
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// NewSystemMessage creates a system instruction.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a user prompt with optional attached file names.
func NewUserMessage(content string, files ...string) Message {
	msg := NewMessage(RoleUser, content)
	if len(files) > 0 {
		msg.Files = slices.Clone(files)
	}
	return msg
}

// NewAssistantMessage creates a plain assistant answer.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// NewToolCallMessage creates an assistant message that requests tool execution.
func NewToolCallMessage(content string, calls ...ToolCall) Message {
	return Message{
		Role:      RoleAssistant,
		Content:   content,
		ToolCalls: slices.Clone(calls),
	}
}

// NewToolMessage creates the tool result answering the call with the given ID.
func NewToolMessage(callID, name, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		Name:       name,
		ToolCallID: callID,
	}
}

// InitMessages creates a single-element message slice from a role and content string.
func InitMessages(role Role, content string) []Message {
	return []Message{NewMessage(role, content)}
}

// Validate checks the per-role field rules described on Message.
func (m Message) Validate() error {
	if !m.Role.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
	}

	switch m.Role {
	case RoleSystem:
		if len(m.ToolCalls) > 0 || m.ToolCallID != "" || len(m.Files) > 0 || m.ImagePath != "" {
			return fmt.Errorf("%w: system message carries variant fields", ErrInvalidMessage)
		}
	case RoleUser:
		if len(m.ToolCalls) > 0 || m.ToolCallID != "" || m.ImagePath != "" {
			return fmt.Errorf("%w: user message carries tool fields", ErrInvalidMessage)
		}
	case RoleAssistant:
		if m.ToolCallID != "" || len(m.Files) > 0 {
			return fmt.Errorf("%w: assistant message carries user or tool fields", ErrInvalidMessage)
		}
		if m.Content == "" && len(m.ToolCalls) == 0 {
			return fmt.Errorf("%w: assistant message has neither content nor tool calls", ErrInvalidMessage)
		}
		for _, tc := range m.ToolCalls {
			if tc.ID == "" || tc.Name == "" {
				return fmt.Errorf("%w: tool call requires id and name", ErrInvalidMessage)
			}
		}
	case RoleTool:
		if m.ToolCallID == "" {
			return fmt.Errorf("%w: tool message requires tool_call_id", ErrInvalidMessage)
		}
		if len(m.ToolCalls) > 0 || len(m.Files) > 0 {
			return fmt.Errorf("%w: tool message carries assistant or user fields", ErrInvalidMessage)
		}
	}
	return nil
}

// Visible reports whether a front-end should render the message. System
// instructions and bare tool plumbing are hidden unless they carry an artifact.
func (m Message) Visible() bool {
	switch m.Role {
	case RoleSystem:
		return false
	case RoleTool:
		return m.ImagePath != ""
	case RoleAssistant:
		if len(m.ToolCalls) > 0 && m.Content == "" {
			return m.ImagePath != ""
		}
	}
	return m.Content != "" || m.ImagePath != ""
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	m.ToolCalls = slices.Clone(m.ToolCalls)
	m.Files = slices.Clone(m.Files)
	return m
}
