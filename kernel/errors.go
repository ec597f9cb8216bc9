package kernel

import "errors"

// Sentinel errors returned by kernel entry points. Turn failures are never
// returned as errors; they end in a Reply carrying text.
var (
	ErrNoSession   = errors.New("no current session")
	ErrEmptyPrompt = errors.New("prompt is empty")
)
