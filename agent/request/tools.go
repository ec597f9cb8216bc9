package request

import (
	"github.com/tailored-agentic-units/insight/agent/providers"
	"github.com/tailored-agentic-units/insight/core/config"
	"github.com/tailored-agentic-units/insight/core/protocol"
)

// ToolsRequest is a non-streaming completion that declares callable tools.
type ToolsRequest struct {
	messages []protocol.Message
	tools    []protocol.Tool
	options  map[string]any
	provider providers.Provider
	model    *config.ModelConfig
}

// NewTools creates a ToolsRequest. Opts are merged over the model's configured
// tools options.
func NewTools(p providers.Provider, m *config.ModelConfig, messages []protocol.Message, tools []protocol.Tool, opts map[string]any) *ToolsRequest {
	return &ToolsRequest{
		messages: messages,
		tools:    tools,
		options:  mergeOptions(m.Options(string(protocol.Tools)), opts),
		provider: p,
		model:    m,
	}
}

func (r *ToolsRequest) Protocol() protocol.Protocol {
	return protocol.Tools
}

func (r *ToolsRequest) Marshal() ([]byte, error) {
	return r.provider.Marshal(protocol.Tools, &providers.ToolsData{
		Model:    r.model.Name,
		Messages: r.messages,
		Tools:    r.tools,
		Options:  r.options,
	})
}

func (r *ToolsRequest) Provider() providers.Provider {
	return r.provider
}

func (r *ToolsRequest) Model() *config.ModelConfig {
	return r.model
}
