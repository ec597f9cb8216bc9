package providers

import "github.com/tailored-agentic-units/insight/core/protocol"

// ChatData contains the data needed to marshal a streamed chat request.
type ChatData struct {
	Model    string
	Messages []protocol.Message
	Options  map[string]any
}

// ToolsData contains the data needed to marshal a tools request.
type ToolsData struct {
	Model    string
	Messages []protocol.Message
	Tools    []protocol.Tool
	Options  map[string]any
}
