package common

import (
	"errors"
	"fmt"
)

// error kinds, every error returned by this module wraps one of them
var (
	ErrSchema    = errors.New("schema error")
	ErrLookup    = errors.New("lookup error")
	ErrEncoding  = errors.New("encoding error")
	ErrTransport = errors.New("transport error")
	ErrTxOutcome = errors.New("transaction outcome error")
	ErrNotFound  = errors.New("not found")
)

// NewKindError returns a sentinel error of the given kind
func NewKindError(kind error, text string) error {
	return fmt.Errorf("%w: %s", kind, text)
}

// IsTransportOrNotFoundError is true when the node failed or had no answer
func IsTransportOrNotFoundError(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrNotFound)
}
