package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnhealthy is returned when the liveness probe answers but not "ok".
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrDecode is returned when a response body is not the expected JSON.
	ErrDecode = errors.New("decode response")
)

// APIError is a non-success answer from the service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d %s: %s", e.Status, e.Code, e.Message)
}
