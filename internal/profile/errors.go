package profile

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoaded is returned when the document is requested before a successful load.
	ErrNotLoaded = errors.New("profile configuration is not loaded yet, call Instance first")

	errNullDocument     = errors.New("document is null")
	errDocumentTooLarge = errors.New("document exceeds size limit")
)

// FetchError reports that the profile resource could not be retrieved.
// StatusCode is zero when no response was received (transport failure, timeout).
type FetchError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("unexpected status %d %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports that the retrieved body is not a valid JSON document.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid profile JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
