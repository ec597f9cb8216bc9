package agent

import (
	"errors"
	"fmt"
)

var (
	ErrNoProvider = errors.New("agent config requires a provider")
	ErrNoModel    = errors.New("agent config requires a model")
)

// StatusError is returned when the model API answers with a non-success
// status. Message holds error.message from the body when present, otherwise
// the raw body.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("model API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("model API returned status %d: %s", e.StatusCode, e.Message)
}
