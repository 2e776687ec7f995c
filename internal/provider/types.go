// Package provider implements a client for the external market-data API.
// The provider exposes one named dataset per collection; this package treats
// that surface as an opaque capability: given a dataset name and parameters,
// return flat tabular rows or empty.
package provider

import (
	"fmt"
	"time"
)

// APIError represents an error from the provider API.
type APIError struct {
	StatusCode int
	Message    string
	Dataset    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error: %s (status: %d, dataset: %s)", e.Message, e.StatusCode, e.Dataset)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("provider rate limit exceeded, retry after %v", e.RetryAfter)
}
