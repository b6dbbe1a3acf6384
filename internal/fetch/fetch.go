// Package fetch provides the network-fetch capability as an explicit
// interface. Consumers receive a Fetcher from the composition root instead
// of reaching for a process-wide binding.
package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
)

var (
	// ErrEmptyURL is returned when no URL is given.
	ErrEmptyURL = errors.New("fetch URL must not be empty")
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("fetch URL must be an absolute http or https URL")
)

// Fetcher performs a single request and returns the response.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts ...Option) (*Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, rawURL string, opts ...Option) (*Response, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	return f(ctx, rawURL, opts...)
}

// Response is the result of a fetch. Callers must Close it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Close releases the body.
func (r *Response) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Option configures a single fetch.
type Option func(*request)

type request struct {
	method string
	header http.Header
	body   io.Reader
}

// WithMethod sets the HTTP method. The default is GET.
func WithMethod(method string) Option {
	return func(r *request) {
		if method != "" {
			r.method = method
		}
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) Option {
	return func(r *request) {
		r.header.Add(key, value)
	}
}

// WithBody sets the request body.
func WithBody(body io.Reader) Option {
	return func(r *request) {
		r.body = body
	}
}

func buildRequest(opts []Option) request {
	req := request{
		method: http.MethodGet,
		header: make(http.Header),
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}
