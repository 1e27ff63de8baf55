package requester

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Request represents a fully built HTTP request
type Request struct {
	Method Method
	URL    *url.URL
	Header http.Header
	// Body is nil when the request carries no body
	Body []byte
}

// ContentType returns the first Content-Type value, if any
func (r *Request) ContentType() string {
	return r.Header.Get("Content-Type")
}

// HTTPRequest converts the request into a net/http request bound to ctx
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(r.Method), r.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header = r.Header.Clone()
	return httpReq, nil
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Result is the outcome of a typed request: either Value (nil for an empty
// body) or Err.
type Result[T any] struct {
	Value *T
	Err   *APIError
}

// OK reports whether the request succeeded
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Unwrap returns the result as a value/error pair
func (r Result[T]) Unwrap() (*T, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Value, nil
}

// RawResult is the outcome of a raw request. Body is kept for every status
// below 500, including client errors.
type RawResult struct {
	Body     []byte
	Response *Response
	Err      *APIError
}

// Error returns Err as an error, nil on success
func (r RawResult) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}
