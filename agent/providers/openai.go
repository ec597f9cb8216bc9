package providers

import (
	"fmt"
	"net/http"

	"github.com/tailored-agentic-units/insight/core/config"
	"github.com/tailored-agentic-units/insight/core/protocol"
)

// OpenAI is a provider for any OpenAI-compatible API (Groq, OpenAI, vLLM).
type OpenAI struct {
	*BaseProvider
	apiKey string
}

// NewOpenAI creates an OpenAI-compatible provider from cfg.
func NewOpenAI(cfg *config.ProviderConfig) (*OpenAI, error) {
	if cfg == nil {
		return nil, fmt.Errorf("provider config is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider %q: base_url is required", cfg.Name)
	}

	name := cfg.Name
	if name == "" {
		name = "openai"
	}

	return &OpenAI{
		BaseProvider: NewBaseProvider(name, cfg.BaseURL),
		apiKey:       cfg.APIKey,
	}, nil
}

// Endpoint maps both protocols to /chat/completions.
func (p *OpenAI) Endpoint(proto protocol.Protocol) (string, error) {
	switch proto {
	case protocol.Chat, protocol.Tools:
		return p.baseURL + "/chat/completions", nil
	default:
		return "", fmt.Errorf("unsupported protocol: %s", proto)
	}
}

func (p *OpenAI) SetHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}

// New selects a provider implementation by name. Every supported host speaks
// the OpenAI wire format.
func New(cfg *config.ProviderConfig) (Provider, error) {
	return NewOpenAI(cfg)
}
