package registry

import (
	"errors"
	"fmt"
)

// SourceUnavailableError indicates the registry API could not be reached
// or answered with a server-side failure.
type SourceUnavailableError struct {
	StatusCode int
	Err        error
}

func (e *SourceUnavailableError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("registry: source unavailable (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("registry: source unavailable: %v", e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// IsSourceUnavailable reports whether err wraps a SourceUnavailableError.
func IsSourceUnavailable(err error) bool {
	var target *SourceUnavailableError
	return errors.As(err, &target)
}

// MalformedResponseError indicates the registry answered but the payload
// could not be decoded into a company page.
type MalformedResponseError struct {
	Page int
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("registry: malformed response for page %d: %v", e.Page, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// IsMalformedResponse reports whether err wraps a MalformedResponseError.
func IsMalformedResponse(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}
