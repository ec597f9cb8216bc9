package request

import (
	"github.com/tailored-agentic-units/insight/agent/providers"
	"github.com/tailored-agentic-units/insight/core/config"
	"github.com/tailored-agentic-units/insight/core/protocol"
)

// Request defines the interface for protocol requests.
// All request types implement this interface to provide consistent
// access to request components needed for execution.
type Request interface {
	// Protocol returns the protocol identifier for this request.
	Protocol() protocol.Protocol

	// Marshal converts the request to JSON bytes.
	Marshal() ([]byte, error)

	// Provider returns the provider for this request.
	Provider() providers.Provider

	// Model returns the model for this request.
	Model() *config.ModelConfig
}
