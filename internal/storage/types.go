package storage

import "errors"

// ErrNotFound indicates that the requested key was not found.
// Callers treat a missing collection as empty, not as a failure.
var ErrNotFound = errors.New("collection not found")
