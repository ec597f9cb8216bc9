// Package imagegen is the image generation adapter. It sends a prompt to a
// Hugging Face hosted text-to-image model and returns the encoded image.
package imagegen

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
	DefaultModel    = "black-forest-labs/FLUX.1-schnell"
	DefaultEndpoint = "https://router.huggingface.co/hf-inference/models/"
	DefaultTimeout  = config.Duration(60 * time.Second)

	maxImageSize = 32 << 20
)

// Config holds Hugging Face Inference settings. Endpoint is the URL prefix
// the model name is appended to.
type Config struct {
	APIKey   string          `json:"api_key,omitempty"`
	Model    string          `json:"model,omitempty"`
	Endpoint string          `json:"endpoint,omitempty"`
	Timeout  config.Duration `json:"timeout,omitempty"`
}

// DefaultConfig returns the hosted FLUX.1-schnell defaults with no token.
func DefaultConfig() Config {
	return Config{
		Model:    DefaultModel,
		Endpoint: DefaultEndpoint,
		Timeout:  DefaultTimeout,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.Endpoint != "" {
		c.Endpoint = source.Endpoint
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
}

// Client calls the inference API.
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

// URL returns the inference URL for the configured model.
func (c *Client) URL() string {
	return strings.TrimRight(c.cfg.Endpoint, "/") + "/" + c.cfg.Model
}

// Generate renders prompt and returns the image bytes. Exactly one of the
// results is meaningful: either image data or an error whose text can be
// shown to the user.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	body, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorText(data)}
	}

	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, truncate(errorText(data), 200))
	}
	return data, nil
}

// errorText extracts {"error": "..."} or {"error": {"message": "..."}} from
// body, falling back to the trimmed body itself.
func errorText(body []byte) string {
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil && len(env.Error) > 0 {
		var s string
		if json.Unmarshal(env.Error, &s) == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(env.Error, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
	}
	return strings.TrimSpace(string(body))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
