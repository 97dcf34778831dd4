package seed

import "errors"

// Sentinel errors for submission.
var (
	ErrRejected    = errors.New("record rejected")
	ErrUnknownKind = errors.New("unknown record kind")
)
