package kernel

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/tailored-agentic-units/insight/archive"
	"github.com/tailored-agentic-units/insight/artifacts"
	"github.com/tailored-agentic-units/insight/core/config"
	"github.com/tailored-agentic-units/insight/embedding"
	"github.com/tailored-agentic-units/insight/imagegen"
	"github.com/tailored-agentic-units/insight/index"
	"github.com/tailored-agentic-units/insight/search"
	"github.com/tailored-agentic-units/insight/session"
)

const defaultObserver = "slog"

// Config holds initialization parameters for all kernel subsystems.
// Each subsystem section delegates to that subsystem's config-driven constructor.
type Config struct {
	Agent     config.AgentConfig `json:"agent"`
	Session   session.Config     `json:"session"`
	Index     index.Config       `json:"index"`
	Embedding embedding.Config   `json:"embedding"`
	Search    search.Config      `json:"search"`
	Image     imagegen.Config    `json:"image"`
	Artifacts artifacts.Config   `json:"artifacts"`
	Archive   archive.Config     `json:"archive"`
	Observer  string             `json:"observer,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Agent:     config.DefaultAgentConfig(),
		Session:   session.DefaultConfig(),
		Index:     index.DefaultConfig(),
		Embedding: embedding.DefaultConfig(),
		Search:    search.DefaultConfig(),
		Image:     imagegen.DefaultConfig(),
		Artifacts: artifacts.DefaultConfig(),
		Observer:  defaultObserver,
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Agent.Merge(&source.Agent)
	c.Session.Merge(&source.Session)
	c.Index.Merge(&source.Index)
	c.Embedding.Merge(&source.Embedding)
	c.Search.Merge(&source.Search)
	c.Image.Merge(&source.Image)
	c.Artifacts.Merge(&source.Artifacts)
	c.Archive.Merge(&source.Archive)

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// ApplyEnv overlays credentials and model choices from the environment.
// Unset variables leave the current values alone.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.Agent.Provider == nil {
		c.Agent.Provider = &config.ProviderConfig{}
	}
	if c.Agent.Model == nil {
		c.Agent.Model = &config.ModelConfig{}
	}
	if v := getenv("GROQ_API_KEY"); v != "" {
		c.Agent.Provider.APIKey = v
	}
	if v := getenv("GROQ_MODEL"); v != "" {
		c.Agent.Model.Name = v
	}
	if v := getenv("GROQ_BASE_URL"); v != "" {
		c.Agent.Provider.BaseURL = v
	}
	if v := getenv("SERPER_API_KEY"); v != "" {
		c.Search.APIKey = v
	}
	if v := getenv("HF_TOKEN"); v != "" {
		c.Image.APIKey = v
	}
	if v := getenv("HF_IMAGE_MODEL"); v != "" {
		c.Image.Model = v
	}
	c.Embedding.ApplyEnv(getenv)
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// LoadEnv loads KEY=value pairs from dotenv files into the process
// environment without overriding variables that are already set. With no
// arguments it reads ".env" and ignores a missing file.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		if _, err := os.Stat(".env"); os.IsNotExist(err) {
			return nil
		}
	}
	if err := godotenv.Load(filenames...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}
