package core

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across pipeline stages.
var (
	ErrInvalidArchive    = errors.New("not a valid tar.gz archive")
	ErrMalformedPayload  = errors.New("malformed payload")
	ErrInputMissing      = errors.New("input path does not exist")
	ErrInvalidIdentifier = errors.New("invalid document identifier")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

// EnvelopeError reports a payload that is an error envelope from the
// remote service instead of a document.
type EnvelopeError struct {
	ID      string
	Message string
}

func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("service returned error for %s: %s", e.ID, e.Message)
}
