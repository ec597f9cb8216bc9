// Package providers turns protocol requests into provider-specific HTTP
// requests for OpenAI-compatible chat-completions APIs.
package providers

import (
	"net/http"

	"github.com/tailored-agentic-units/insight/core/protocol"
)

// Provider knows where and how to send a protocol request.
type Provider interface {
	// Name returns the provider identifier (e.g. "groq").
	Name() string

	// BaseURL returns the API root without a trailing slash.
	BaseURL() string

	// Endpoint returns the full URL for the given protocol.
	Endpoint(p protocol.Protocol) (string, error)

	// SetHeaders applies authentication and content headers.
	SetHeaders(req *http.Request)

	// Marshal converts protocol data to a JSON request body.
	Marshal(p protocol.Protocol, data any) ([]byte, error)
}
