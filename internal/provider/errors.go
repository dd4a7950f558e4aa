package provider

import (
	"errors"
	"fmt"
)

// UpstreamError is a non-success response from the sports-data API. It
// carries the status and response body so callers can log the upstream's own
// error message.
type UpstreamError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request failed with status %d: %s (%s)", e.StatusCode, e.Body, e.URL)
}

// NewUpstreamError creates an upstream API error.
func NewUpstreamError(statusCode int, body, url string) *UpstreamError {
	return &UpstreamError{StatusCode: statusCode, Body: body, URL: url}
}

// IsUpstreamError reports whether err is (or wraps) an UpstreamError.
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
