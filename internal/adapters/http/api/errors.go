package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrMissingTitle = errors.New("title query parameter is required")
	ErrInvalidYear  = errors.New("year must be an integer")
)
