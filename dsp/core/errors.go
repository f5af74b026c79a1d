package core

import "errors"

// Sentinel error kinds shared by every processing stage. Callers match them
// with errors.Is; stages wrap them with the offending value.
var (
	// ErrEmptyBuffer reports an operation invoked on a zero-length signal.
	ErrEmptyBuffer = errors.New("empty buffer")
	// ErrInvalidParameter reports a parameter outside its valid range.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNumericInstability reports NaN or Inf produced by a filter or transform.
	ErrNumericInstability = errors.New("numeric instability")
)
