package index

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrEmptyDocument     = errors.New("the file seems to be empty or unreadable")
	ErrDimensionMismatch = errors.New("embedding dimension does not match index")
)
