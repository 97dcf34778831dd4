package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound       = errors.New("candidate not found")
	ErrClosed         = errors.New("store closed")
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrMissingDSN     = errors.New("missing connection string")
)
