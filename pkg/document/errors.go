package document

import (
	"errors"
	"fmt"
)

// ErrRetrieval marks every failure to obtain a usable performance document:
// transport errors, non-2xx responses, malformed payloads and shape errors
// are not distinguished by consumers.
var ErrRetrieval = errors.New("performance data not available")

// RetrievalError wraps the underlying cause of a retrieval failure.
// errors.Is(err, ErrRetrieval) holds for every RetrievalError.
type RetrievalError struct {
	Op  string
	Err error
}

// NewRetrievalError wraps err as a retrieval failure of the given operation.
func NewRetrievalError(op string, err error) error {
	return &RetrievalError{Op: op, Err: err}
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *RetrievalError) Unwrap() []error {
	return []error{ErrRetrieval, e.Err}
}
