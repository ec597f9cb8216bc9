package session

// DefaultWelcome is the greeting every new session starts with.
const DefaultWelcome = "Welcome to **InsightBot**. How can I help you today?"

// Config holds session store parameters.
type Config struct {
	Welcome string `json:"welcome,omitempty"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{Welcome: DefaultWelcome}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Welcome != "" {
		c.Welcome = source.Welcome
	}
}
