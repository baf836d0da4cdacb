// Package errors provides structured error handling for viewkit.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindPrecondition indicates a caller broke a lifecycle precondition.
	KindPrecondition
	// KindTransition indicates an invalid view state transition.
	KindTransition
	// KindRender indicates a failure inside the rendering pipeline.
	KindRender
	// KindScheduler indicates a run loop failure.
	KindScheduler
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindConfig indicates a configuration or scenario error.
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindTransition:
		return "transition"
	case KindRender:
		return "render"
	case KindScheduler:
		return "scheduler"
	case KindPanic:
		return "panic"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyRendered is the cause of inserting a view that is already in the DOM.
	ErrAlreadyRendered = stderrors.New("you cannot insert a view that has already been rendered")
	// ErrRenderedBeforeInsert is the cause of re-rendering a view that rendered
	// in the current pass but was not inserted yet.
	ErrRenderedBeforeInsert = stderrors.New("something you did caused a view to re-render after it rendered but before it was inserted into the DOM")
	// ErrInvalidTransition is the cause of every TransitionError.
	ErrInvalidTransition = stderrors.New("invalid view state transition")
)

// ViewError represents a structured error reported by viewkit.
type ViewError struct {
	// Op is the operation that failed (e.g., "renderer.RenderTopLevelView").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// ViewID is the id of the view involved, if any.
	ViewID string
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *ViewError) Error() string {
	if e.ViewID != "" {
		return fmt.Sprintf("%s [%s] view=%s: %v", e.Op, e.Kind, e.ViewID, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *ViewError) Unwrap() error {
	return e.Err
}

// PreconditionError reports misuse of the lifecycle API. It is raised at
// the point of detection and is never retried.
type PreconditionError struct {
	// Op is the operation that detected the violation.
	Op string
	// ViewID is the offending view.
	ViewID string
	// Cause is one of the package sentinels.
	Cause error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: view %s: %v", e.Op, e.ViewID, e.Cause)
}

func (e *PreconditionError) Unwrap() error {
	return e.Cause
}

// TransitionError reports a state change the view state machine forbids.
type TransitionError struct {
	ViewID string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("view %s: cannot transition from %s to %s", e.ViewID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// IsPrecondition reports whether err is, or wraps, a lifecycle precondition
// violation (including invalid transitions).
func IsPrecondition(err error) bool {
	var pre *PreconditionError
	if stderrors.As(err, &pre) {
		return true
	}
	var tr *TransitionError
	return stderrors.As(err, &tr)
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "renderer.notify").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by viewkit.
type ErrorHandler interface {
	// HandleError is called when an error is reported.
	HandleError(err *ViewError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
