package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrCredentialRequired = errors.New("credential required for this source")
	ErrInvalidURL         = errors.New("invalid URL")
	ErrEmptyResponse      = errors.New("empty response body")
)

// FetchError wraps errors that occur while fetching a source.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ParseError wraps errors that occur while parsing a payload.
type ParseError struct {
	URL      string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("parse error for %s (selector=%q): %v", e.URL, e.Selector, e.Err)
	}
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExportError wraps errors from storage/export backends.
type ExportError struct {
	Backend string
	Err     error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error (%s): %v", e.Backend, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
