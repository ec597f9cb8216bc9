package embedding

import "errors"

var (
	ErrUnknownProvider = errors.New("unknown embedding provider")
	ErrCountMismatch   = errors.New("embedding count does not match input count")
)
