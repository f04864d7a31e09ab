package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by store lookups for a missing game or genre.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedTranslation marks a translation value that is neither
	// null, a string, nor a list of strings.
	ErrUnsupportedTranslation = errors.New("unsupported translation value")
)

// FetchError reports that a source could not answer for a title.
// Callers always treat it as retryable.
type FetchError struct {
	Site  string
	Title string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.Title, e.Site, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err unless it already is a *FetchError.
func NewFetchError(site, title string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Site: site, Title: title, Err: err}
}

// ConfigurationError is fatal at startup.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Field, e.Reason)
}
