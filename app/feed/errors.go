package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// FetchErrorKind classifies transport failures for user-facing messages.
type FetchErrorKind int

const (
	FetchTransport FetchErrorKind = iota
	FetchConnectionRefused
	FetchTimeout
	FetchBadStatus
)

// FetchError is a classified transport failure. Error() returns the
// message shown to operators on the feed record.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchConnectionRefused:
		return "Could not connect to feed URL"
	case FetchTimeout:
		return "Connection timed out"
	case FetchBadStatus:
		return fmt.Sprintf("Error %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "Failed to fetch feed"
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// classifyFetchError maps a transport-level error from the HTTP client
// onto a FetchError kind.
func classifyFetchError(err error) *FetchError {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return &FetchError{Kind: FetchConnectionRefused, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: FetchTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: FetchTimeout, Err: err}
	}

	return &FetchError{Kind: FetchTransport, Err: err}
}

// FormatError reports a document whose required top-level structure is
// absent or unparseable. It always fails the whole run, never partially.
type FormatError struct {
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	return e.Message
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
