package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request describes a single outbound fetch.
type Request struct {
	// URL is the target to fetch.
	URL *url.URL

	// Method is the HTTP method. Defaults to GET.
	Method string

	// Headers are extra HTTP headers for this request.
	Headers http.Header

	// Timeout overrides the configured request timeout when > 0.
	Timeout time.Duration

	// ItemName is the query term this fetch is serving, carried along
	// for logging.
	ItemName string

	// CreatedAt is when this request was created.
	CreatedAt time.Time
}

// NewRequest creates a GET Request for a raw URL.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	return &Request{
		URL:       u,
		Method:    http.MethodGet,
		Headers:   make(http.Header),
		CreatedAt: time.Now(),
	}, nil
}

// URLString returns the string form of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Host returns the hostname of the request URL, used as the source
// identifier for scraped records.
func (r *Request) Host() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}
