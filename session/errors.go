package session

import "errors"

// Sentinel errors for the session store.
var (
	ErrNotFound          = errors.New("session not found")
	ErrInvalidMessage    = errors.New("invalid message")
	ErrInvalidTranscript = errors.New("invalid transcript")
)
