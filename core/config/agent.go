// Package config holds the configuration types shared by the model client and
// the kernel. Each type follows the same pattern: a Default constructor and a
// Merge method where non-zero source values win.
package config

import "time"

const (
	DefaultProviderName = "groq"
	DefaultBaseURL      = "https://api.groq.com/openai/v1"
	DefaultModel        = "llama-3.1-8b-instant"
	DefaultMaxTokens    = 500
	DefaultTimeout      = Duration(30 * time.Second)
)

// AgentConfig describes how to reach a chat-completions model.
type AgentConfig struct {
	Name     string          `json:"name,omitempty"`
	Provider *ProviderConfig `json:"provider,omitempty"`
	Model    *ModelConfig    `json:"model,omitempty"`
	Timeout  Duration        `json:"timeout,omitempty"`
}

// ProviderConfig identifies the API host and its credentials.
type ProviderConfig struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key,omitempty"`
}

// ModelConfig names the model and carries per-protocol request options.
// Capabilities keys are protocol names ("chat", "tools"); values are merged
// into the request body for that protocol.
type ModelConfig struct {
	Name         string                    `json:"name"`
	Capabilities map[string]map[string]any `json:"capabilities,omitempty"`
}

// DefaultAgentConfig returns the Groq-hosted defaults.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Name: "insight",
		Provider: &ProviderConfig{
			Name:    DefaultProviderName,
			BaseURL: DefaultBaseURL,
		},
		Model: &ModelConfig{
			Name: DefaultModel,
			Capabilities: map[string]map[string]any{
				"chat":  {"max_tokens": DefaultMaxTokens},
				"tools": {"max_tokens": DefaultMaxTokens, "tool_choice": "auto"},
			},
		},
		Timeout: DefaultTimeout,
	}
}

// Merge applies non-zero values from source into c.
func (c *AgentConfig) Merge(source *AgentConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}

	if source.Provider != nil {
		if c.Provider == nil {
			c.Provider = &ProviderConfig{}
		}
		c.Provider.Merge(source.Provider)
	}

	if source.Model != nil {
		if c.Model == nil {
			c.Model = &ModelConfig{}
		}
		c.Model.Merge(source.Model)
	}
}

// Merge applies non-zero values from source into c.
func (c *ProviderConfig) Merge(source *ProviderConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
}

// Merge applies non-zero values from source into c. Capability option maps
// are merged key by key.
func (c *ModelConfig) Merge(source *ModelConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if len(source.Capabilities) == 0 {
		return
	}
	if c.Capabilities == nil {
		c.Capabilities = make(map[string]map[string]any)
	}
	for proto, opts := range source.Capabilities {
		dst := c.Capabilities[proto]
		if dst == nil {
			dst = make(map[string]any, len(opts))
			c.Capabilities[proto] = dst
		}
		for k, v := range opts {
			dst[k] = v
		}
	}
}

// Options returns a copy of the request options configured for proto.
func (c *ModelConfig) Options(proto string) map[string]any {
	out := make(map[string]any)
	if c == nil {
		return out
	}
	for k, v := range c.Capabilities[proto] {
		out[k] = v
	}
	return out
}
