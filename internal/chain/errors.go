package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse marks a record that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrInvariantViolation marks a response whose overall shape is invalid.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrNotFound marks a block or contract the node does not know.
	ErrNotFound = errors.New("not found")
)

// CallError is a failed request to the node. It is always transient from
// the caller's point of view: the same request may succeed later.
type CallError struct {
	Method     string
	Entrypoint string
	Block      BlockID
	Code       int
	Err        error
}

func (e *CallError) Error() string {
	if e.Entrypoint != "" {
		return fmt.Sprintf("%s %s at %s: %v", e.Method, e.Entrypoint, e.Block, e.Err)
	}
	return fmt.Sprintf("%s at %s: %v", e.Method, e.Block, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Is matches ErrNotFound for the node's not-found error codes.
func (e *CallError) Is(target error) bool {
	return target == ErrNotFound && (e.Code == codeContractNotFound || e.Code == codeBlockNotFound)
}

// IsTransient reports whether err is a chain failure worth retrying.
func IsTransient(err error) bool {
	var callErr *CallError
	return errors.As(err, &callErr)
}
