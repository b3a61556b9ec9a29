package scrape

import (
	"errors"
	"fmt"
)

// TransientError marks a failure worth retrying: timeouts, connection
// errors and 5xx responses. Everything else is permanent.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) error {
	return &TransientError{Err: err}
}

// IsTransient reports whether err is classified as retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// PaginationLoopError reports a remote page sequence that repeated a
// continuation token, which would otherwise fetch forever.
type PaginationLoopError struct {
	// ASIN identifies the book whose fetch was aborted.
	ASIN string
	// Token is the repeated continuation token, or "" when the page
	// cap was hit instead.
	Token string
	// Pages is how many pages were fetched before the abort.
	Pages int
}

func (e *PaginationLoopError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("pagination aborted for %s: page limit reached after %d pages", e.ASIN, e.Pages)
	}
	return fmt.Sprintf("pagination loop detected for %s: token %q repeated after %d pages", e.ASIN, e.Token, e.Pages)
}

// IsPaginationLoop reports whether err is a pagination abort.
func IsPaginationLoop(err error) bool {
	var pe *PaginationLoopError
	return errors.As(err, &pe)
}
