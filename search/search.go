// Package search is the web search adapter. It queries the Serper Google
// Search API and condenses the response into a plain-text digest suitable for
// a model's tool-result message.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tailored-agentic-units/insight/core/config"
)

const (
	DefaultEndpoint   = "https://google.serper.dev/search"
	DefaultTimeout    = config.Duration(10 * time.Second)
	DefaultMaxResults = 4

	// NoResults is returned when the API answered but nothing was usable.
	NoResults = "No results found."

	// NotConfigured is returned when no usable API key is set.
	NotConfigured = "Error: Serper API key not configured."

	placeholderKey = "your_serper_api_key_here"
	sectionSep     = "\n\n---\n\n"
)

// Config holds Serper connection settings.
type Config struct {
	APIKey     string          `json:"api_key,omitempty"`
	Endpoint   string          `json:"endpoint,omitempty"`
	Timeout    config.Duration `json:"timeout,omitempty"`
	MaxResults int             `json:"max_results,omitempty"`
}

// DefaultConfig returns the public Serper endpoint with no key.
func DefaultConfig() Config {
	return Config{
		Endpoint:   DefaultEndpoint,
		Timeout:    DefaultTimeout,
		MaxResults: DefaultMaxResults,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.Endpoint != "" {
		c.Endpoint = source.Endpoint
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
	if source.MaxResults > 0 {
		c.MaxResults = source.MaxResults
	}
}

// Configured reports whether a real API key is present.
func (c Config) Configured() bool {
	return c.APIKey != "" && c.APIKey != placeholderKey
}

// Client calls the Serper API.
type Client struct {
	cfg    Config
	client *http.Client
}

// New creates a Client. Zero fields of cfg take their defaults.
func New(cfg Config) *Client {
	merged := DefaultConfig()
	merged.Merge(&cfg)
	return &Client{
		cfg:    merged,
		client: &http.Client{Timeout: merged.Timeout.Std()},
	}
}

// Search runs query and returns the digest. It never fails: configuration,
// transport and decoding problems are reported as text starting with
// "Error".
func (c *Client) Search(ctx context.Context, query string) string {
	if !c.cfg.Configured() {
		return NotConfigured
	}

	results, err := c.fetch(ctx, query)
	if err != nil {
		return fmt.Sprintf("Error during search: %v", err)
	}

	sections := results.digest()
	if len(sections) == 0 {
		return NoResults
	}
	if len(sections) > c.cfg.MaxResults {
		sections = sections[:c.cfg.MaxResults]
	}
	return strings.Join(sections, sectionSep)
}

func (c *Client) fetch(ctx context.Context, query string) (*serperResponse, error) {
	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var results serperResponse
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &results, nil
}
