package backend

import "fmt"

// TimeoutError reports a call that outlived its deadline. The underlying
// request is aborted by context cancellation, not left running.
type TimeoutError struct {
	Endpoint string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out", e.Endpoint)
}

// NetworkError wraps any transport-level failure other than a timeout.
type NetworkError struct {
	Endpoint string
	Cause    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// ServerError reports a non-success HTTP status. Message is the backend's
// own error text when its body could be parsed, otherwise empty.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (status %d)", e.Status)
}
