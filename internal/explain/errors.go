package explain

import (
	"errors"
	"fmt"
)

// Failure reasons carried by GenerationError and ExpansionError.
const (
	ReasonNoResponse      = "no response"
	ReasonInvalidResponse = "invalid response"
	ReasonProvider        = "provider error"
)

// ValidationError is the first schema violation found in generator output.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// GenerationError is a failed explanation, answer or script generation.
type GenerationError struct {
	Op     string // "explain", "ask" or "script"
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s failed: %s: %v", e.Op, e.Reason, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ExpansionError is a failed term expansion.
type ExpansionError struct {
	TermID string
	Reason string
	Err    error
}

func (e *ExpansionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("expand %q failed: %s", e.TermID, e.Reason)
	}
	return fmt.Sprintf("expand %q failed: %s: %v", e.TermID, e.Reason, e.Err)
}

func (e *ExpansionError) Unwrap() error { return e.Err }

// DepthLimitError rejects an expansion outside 0..MaxDepth.
type DepthLimitError struct {
	Depth int
	Max   int
}

func (e *DepthLimitError) Error() string {
	return fmt.Sprintf("maximum expansion depth reached: depth %d exceeds %d", e.Depth, e.Max)
}

// RequestError is a malformed or out-of-range request.
type RequestError struct {
	Field  string
	Reason string
}

func (e *RequestError) Error() string {
	return e.Field + ": " + e.Reason
}

// IsInvalidInput reports whether err is caused by the caller's input rather
// than by the generator.
func IsInvalidInput(err error) bool {
	var reqErr *RequestError
	var depthErr *DepthLimitError
	return errors.As(err, &reqErr) || errors.As(err, &depthErr)
}
