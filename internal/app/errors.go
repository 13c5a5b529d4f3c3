package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates Serve was called on a serving application.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrInitialization indicates a component failed to start.
	ErrInitialization = errors.New("initialization failed")

	// ErrShutdownTimeout indicates the HTTP server did not drain in time.
	ErrShutdownTimeout = errors.New("shutdown timed out")

	// ErrUnsupportedDocument indicates a file extension folio cannot read.
	ErrUnsupportedDocument = errors.New("unsupported document type")

	// ErrReadOnly indicates a write to a read-only document.
	ErrReadOnly = errors.New("document is read-only")
)

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op      string // Operation name (e.g., "render", "save", "run")
	Target  string // Target of the operation (e.g., file path)
	Context string // Additional context
	Err     error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

// WithContext adds context to the error.
// Safe to call on nil receiver - returns nil.
func (e *OperationError) WithContext(ctx string) *OperationError {
	if e == nil {
		return nil
	}
	e.Context = ctx
	return e
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Context != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Context)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ComponentError reports a component that failed to start or stop.
type ComponentError struct {
	Component string // Component name (e.g., "config", "logging", "server")
	Action    string // Action being performed
	Err       error  // Underlying error
}

// NewComponentError creates a new ComponentError.
func NewComponentError(component, action string, err error) *ComponentError {
	return &ComponentError{
		Component: component,
		Action:    action,
		Err:       err,
	}
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Action != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
	case e.Action != "":
		return fmt.Sprintf("%s: %s", e.Component, e.Action)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Component, e.Err)
	}
	return e.Component
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches ErrInitialization for start-up failures.
func (e *ComponentError) Is(target error) bool {
	return target == ErrInitialization && e != nil && e.Action == "init"
}

// ErrorList collects multiple errors.
// NOTE: ErrorList is NOT safe for concurrent use.
type ErrorList struct {
	errors []error
}

// Add adds an error to the list. Nil errors are ignored.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.errors = append(e.errors, err)
	}
}

// Len returns the number of errors.
func (e *ErrorList) Len() int {
	return len(e.errors)
}

// Error returns a combined error message.
func (e *ErrorList) Error() string {
	switch len(e.errors) {
	case 0:
		return ""
	case 1:
		return e.errors[0].Error()
	}
	return fmt.Sprintf("%d errors: first: %v", len(e.errors), e.errors[0])
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e *ErrorList) Unwrap() []error {
	return e.errors
}

// AsError returns nil if there are no errors, otherwise returns the ErrorList.
func (e *ErrorList) AsError() error {
	if len(e.errors) == 0 {
		return nil
	}
	return e
}
