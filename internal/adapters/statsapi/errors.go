package statsapi

import (
	"errors"
	"fmt"
)

var (
	ErrScheduleUnavailable = errors.New("schedule unavailable")
	ErrMaxRetries          = errors.New("max retries exceeded")
	ErrDecode              = errors.New("decode response")
)

// HTTPError is a non-200 response from the stats API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// retryable reports whether a failed request may succeed on a later attempt.
// Client errors are final, except 429.
func retryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == 429
	}
	return true
}
