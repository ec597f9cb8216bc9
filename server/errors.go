package server

import "errors"

var errMissingFinal = errors.New("send stream ended without a final message")
