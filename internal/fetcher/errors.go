package fetcher

import (
	"fmt"
	"net/http"
)

// StatusError is an upstream response outside the success range.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Retryable is false for 4xx: the request itself is wrong and repeating it
// will not help.
func (e *StatusError) Retryable() bool {
	return e.StatusCode < http.StatusBadRequest || e.StatusCode >= http.StatusInternalServerError
}

// checkStatus returns a *StatusError for every status outside 2xx, including
// a 3xx the client did not follow. A zero status is what the chromedp backend
// reports when Chrome gave none, and counts as success.
func checkStatus(code int) error {
	if code == 0 || (code >= http.StatusOK && code < http.StatusMultipleChoices) {
		return nil
	}
	return &StatusError{StatusCode: code}
}
