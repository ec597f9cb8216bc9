package protocol

import "errors"

// Sentinel errors for message validation.
var (
	ErrInvalidRole    = errors.New("invalid message role")
	ErrInvalidMessage = errors.New("invalid message")
	ErrUnpairedTool   = errors.New("tool message does not answer the preceding tool call")
)
