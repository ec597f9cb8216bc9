package imagegen

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured = errors.New("image generation not configured: HF_TOKEN is not set")
	ErrEmptyPrompt   = errors.New("image prompt is empty")
	ErrNotImage      = errors.New("image API returned a non-image payload")
)

// StatusError reports a non-success response from the inference API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("image API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("image API returned status %d: %s", e.StatusCode, e.Message)
}
