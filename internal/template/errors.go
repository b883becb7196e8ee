package template

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPlaceholder is returned when a placeholder body does not contain exactly one '|'.
	ErrMalformedPlaceholder = errors.New("malformed placeholder")

	// ErrUnboundedDelimiter is returned for a '{' without a matching '}', or a '}' without a '{'.
	ErrUnboundedDelimiter = errors.New("unbounded delimiter")
)

// SyntaxError locates a template parsing failure.
type SyntaxError struct {
	Err    error
	Offset int    // byte offset of the offending delimiter
	Body   string // placeholder body, when known
}

func (e *SyntaxError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%v at offset %d: %q", e.Err, e.Offset, e.Body)
	}
	return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// IsSyntaxError reports whether err is a template syntax problem rather than a store failure.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
