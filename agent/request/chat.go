package request

import (
	"github.com/tailored-agentic-units/insight/agent/providers"
	"github.com/tailored-agentic-units/insight/core/config"
	"github.com/tailored-agentic-units/insight/core/protocol"
)

// ChatRequest is a streamed completion without tool declarations.
type ChatRequest struct {
	messages []protocol.Message
	options  map[string]any
	provider providers.Provider
	model    *config.ModelConfig
}

// NewChat creates a ChatRequest. Opts are merged over the model's configured
// chat options.
func NewChat(p providers.Provider, m *config.ModelConfig, messages []protocol.Message, opts map[string]any) *ChatRequest {
	return &ChatRequest{
		messages: messages,
		options:  mergeOptions(m.Options(string(protocol.Chat)), opts),
		provider: p,
		model:    m,
	}
}

func (r *ChatRequest) Protocol() protocol.Protocol {
	return protocol.Chat
}

func (r *ChatRequest) Marshal() ([]byte, error) {
	return r.provider.Marshal(protocol.Chat, &providers.ChatData{
		Model:    r.model.Name,
		Messages: r.messages,
		Options:  r.options,
	})
}

func (r *ChatRequest) Provider() providers.Provider {
	return r.provider
}

func (r *ChatRequest) Model() *config.ModelConfig {
	return r.model
}

func mergeOptions(base, overrides map[string]any) map[string]any {
	for k, v := range overrides {
		base[k] = v
	}
	return base
}
