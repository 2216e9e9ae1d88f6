package scoring

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for malformed input: too short, non-finite
	// values or mismatched matrix dimensions.
	ErrValidation = errors.New("invalid scores")

	// ErrDegenerateInput is returned when the scores have zero range or zero
	// variance and a procedure would otherwise divide by zero.
	ErrDegenerateInput = errors.New("degenerate scores")

	// ErrAlgorithmFailure is returned when a backend cannot satisfy its
	// structural requirement, e.g. it cannot form two clusters.
	ErrAlgorithmFailure = errors.New("algorithm failure")
)

// AlgorithmError carries the backend that failed and the input size.
type AlgorithmError struct {
	Backend string
	Size    int
	Reason  string
}

func (e *AlgorithmError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: backend %q failed on %d scores", ErrAlgorithmFailure, e.Backend, e.Size)
	}
	return fmt.Sprintf("%s: backend %q failed on %d scores: %s", ErrAlgorithmFailure, e.Backend, e.Size, e.Reason)
}

func (e *AlgorithmError) Unwrap() error {
	return ErrAlgorithmFailure
}

// NewAlgorithmError builds an AlgorithmError for backend on n scores.
func NewAlgorithmError(backend string, n int, reason string) error {
	return &AlgorithmError{Backend: backend, Size: n, Reason: reason}
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func degenerateErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDegenerateInput, fmt.Sprintf(format, args...))
}
