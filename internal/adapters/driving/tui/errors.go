package tui

import "errors"

// ErrMissingClient is returned when the SDK client is not provided.
var ErrMissingClient = errors.New("tui: client is required")
