// Package embedding turns text into vectors for the document index.
package embedding

import (
	"context"
	"fmt"
	"strings"
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Embed returns one embedding per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector length, or 0 when unknown.
	Dimension() int
}

// Provider identifies a supported embedding API.
type Provider struct {
	Name      string
	Endpoint  string
	Model     string
	Dimension int
	EnvKey    string
}

var (
	Voyage = Provider{
		Name:      "voyage",
		Endpoint:  "https://api.voyageai.com/v1/embeddings",
		Model:     "voyage-3-lite",
		Dimension: 1024,
		EnvKey:    "VOYAGE_API_KEY",
	}

	OpenAI = Provider{
		Name:      "openai",
		Endpoint:  "https://api.openai.com/v1/embeddings",
		Model:     "text-embedding-3-small",
		Dimension: 1536,
		EnvKey:    "OPENAI_API_KEY",
	}
)

// Config selects an embedding backend. Provider is one of "hashing",
// "ollama", "voyage" or "openai"; empty means hashing.
type Config struct {
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	Dimension int    `json:"dimension,omitempty"`
}

// DefaultConfig returns the offline hashing embedder configuration.
func DefaultConfig() Config {
	return Config{
		Provider:  "hashing",
		Dimension: DefaultHashDimension,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Provider != "" {
		c.Provider = source.Provider
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.Endpoint != "" {
		c.Endpoint = source.Endpoint
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.Dimension > 0 {
		c.Dimension = source.Dimension
	}
}

// ApplyEnv detects a hosted provider from the environment. It checks
// OLLAMA_EMBED_MODEL (with OLLAMA_HOST) first, then VOYAGE_API_KEY, then
// OPENAI_API_KEY. Nothing changes when none is set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if model := getenv("OLLAMA_EMBED_MODEL"); model != "" {
		if host := getenv("OLLAMA_HOST"); host != "" {
			c.Provider = "ollama"
			c.Model = model
			c.Endpoint = strings.TrimRight(host, "/") + "/v1/embeddings"
			c.APIKey = "ollama"
			c.Dimension = 0
			return
		}
	}
	for _, p := range []Provider{Voyage, OpenAI} {
		if key := getenv(p.EnvKey); key != "" {
			c.Provider = p.Name
			c.APIKey = key
			c.Model = ""
			c.Endpoint = ""
			c.Dimension = 0
			return
		}
	}
}

// New builds the Embedder described by cfg. An Ollama embedder embeds a sample
// once to discover its dimension.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "", "hashing":
		return NewHashing(cfg.Dimension), nil
	case "voyage":
		return NewHTTP(withOverrides(Voyage, cfg), cfg.APIKey), nil
	case "openai":
		return NewHTTP(withOverrides(OpenAI, cfg), cfg.APIKey), nil
	case "ollama":
		return newOllama(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

func withOverrides(p Provider, cfg Config) Provider {
	if cfg.Model != "" {
		p.Model = cfg.Model
	}
	if cfg.Endpoint != "" {
		p.Endpoint = cfg.Endpoint
	}
	if cfg.Dimension > 0 {
		p.Dimension = cfg.Dimension
	}
	return p
}

func newOllama(ctx context.Context, cfg Config) (Embedder, error) {
	if cfg.Endpoint == "" || cfg.Model == "" {
		return nil, fmt.Errorf("ollama embedder requires endpoint and model")
	}

	emb := NewHTTP(Provider{
		Name:     "ollama",
		Endpoint: cfg.Endpoint,
		Model:    cfg.Model,
	}, cfg.APIKey)

	vecs, err := emb.Embed(ctx, []string{"hello"})
	if err != nil {
		return nil, fmt.Errorf("ollama dimension check (%s): %w", cfg.Model, err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("ollama dimension check returned empty embedding")
	}

	emb.provider.Dimension = len(vecs[0])
	return emb, nil
}
