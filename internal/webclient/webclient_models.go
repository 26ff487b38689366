package webclient

import (
	"errors"
	"net/http"
	"time"
)

// ErrNilRequest is returned by every backend when Do receives a nil request.
var ErrNilRequest = errors.New("request cannot be nil")

type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
}
