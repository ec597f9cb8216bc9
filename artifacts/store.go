// Package artifacts stores files produced during a conversation, such as
// generated images and transcript exports, under a content directory.
package artifacts

import "context"

// DefaultRoot is the directory generated images are written to.
const DefaultRoot = "generated_images"

// Store persists artifact bytes under /-separated relative keys
// (e.g. "<session>/img_2026-01-02_15-04-05.png").
type Store interface {
	// Save writes data under key, replacing any previous content, and returns
	// the path a front-end can use to display it.
	Save(ctx context.Context, key string, data []byte) (string, error)
	// Load returns the bytes stored under key.
	Load(ctx context.Context, key string) ([]byte, error)
	// List returns the keys under prefix ("" for all), sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// Config holds artifact store settings.
type Config struct {
	Root string `json:"root,omitempty"`
}

// DefaultConfig returns the default artifact directory.
func DefaultConfig() Config {
	return Config{Root: DefaultRoot}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Root != "" {
		c.Root = source.Root
	}
}
