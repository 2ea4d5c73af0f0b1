package repository

import "errors"

// Sentinel kinds for poster cache errors.
var (
	ErrNotFound     = errors.New("poster not cached")
	ErrInvalidEntry = errors.New("cache entry needs a key and a url")
	ErrClosed       = errors.New("store closed")
)
