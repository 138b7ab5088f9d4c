package github

import (
	"errors"
	"fmt"
)

// Fetcher errors.
var (
	// ErrUnexpectedObject indicates a paged endpoint returned a single JSON
	// object instead of a collection.
	ErrUnexpectedObject = errors.New("github: endpoint returned an object where a collection was expected")

	// ErrEmptyResponse indicates a single-object fetch returned no record.
	ErrEmptyResponse = errors.New("github: endpoint returned no record")
)

// APIError represents a terminal GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}
