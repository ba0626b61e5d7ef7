package models

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any network call is made.
	ErrValidation = errors.New("validation error")

	// ErrRequestFailed covers non-2xx responses and transport failures.
	ErrRequestFailed = errors.New("request failed")

	// ErrMalformedResponse is a response body that does not match the
	// expected shape. It is also an ErrRequestFailed.
	ErrMalformedResponse = fmt.Errorf("%w: malformed response", ErrRequestFailed)

	ErrNothingToExport = errors.New("no results to save")

	// ErrStaleSubmission is returned when a newer submission was issued
	// while this one was in flight; its results are discarded.
	ErrStaleSubmission = errors.New("submission superseded by a newer one")
)
