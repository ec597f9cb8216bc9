package artifacts

import "errors"

var (
	ErrKeyNotFound = errors.New("artifact not found")
	ErrInvalidKey  = errors.New("invalid artifact key")
	ErrSaveFailed  = errors.New("artifact save failed")
	ErrLoadFailed  = errors.New("artifact load failed")
)
