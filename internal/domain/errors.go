package domain

import (
	"errors"
	"fmt"
)

// ErrForbidden signals that the caller is not authorized for the target
// calendar. It is surfaced as a tool error or HTTP 403, never a crash.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound signals a missing entity (thread, post, note).
var ErrNotFound = errors.New("not found")

// ValidationError rejects a malformed request or tool argument set before
// any model invocation happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// TimeoutError reports that the model invocation exceeded its bound. The
// turn fails and nothing is committed to memory.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %s exceeded its deadline", e.Op)
}

// UpstreamError wraps a model or retrieval backend failure. Context-block
// producers degrade to absence on it; the primary model call does not.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
