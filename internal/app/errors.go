package app

import (
	"errors"
	"fmt"
	"slices"
)

// Application errors.
var (
	// ErrQuit signals that the application should exit normally.
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning indicates Run was called on a running application.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNoColumns indicates the data source has no column definitions.
	ErrNoColumns = errors.New("no columns defined")
)

// OperationError records which operation on which target failed, such as
// loading a columns file or counting the rows of a table.
type OperationError struct {
	Op      string // "load", "connect", "count", "snapshot"
	Target  string // file path or table name
	Context string
	Err     error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{Op: op, Target: target, Err: err}
}

// WithContext sets the context and returns e. Safe on a nil receiver.
func (e *OperationError) WithContext(ctx string) *OperationError {
	if e != nil {
		e.Context = ctx
	}
	return e
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Op
	if e.Target != "" {
		msg += " " + e.Target
	}
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ComponentError reports a failure while starting or configuring one part
// of the application: the terminal, the watcher, the grid or the scripts.
type ComponentError struct {
	Component string
	Action    string
	Err       error
}

// NewComponentError creates a new ComponentError.
func NewComponentError(component, action string, err error) *ComponentError {
	return &ComponentError{Component: component, Action: action, Err: err}
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Component
	if e.Action != "" {
		msg += ": " + e.Action
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RecoveredPanicError is returned by the event loop when handling an input
// event panicked. The loop logs it and keeps running.
type RecoveredPanicError struct {
	Event string
	Value any
	Stack string
}

// NewRecoveredPanicError creates a new RecoveredPanicError.
func NewRecoveredPanicError(event string, value any, stack string) *RecoveredPanicError {
	return &RecoveredPanicError{Event: event, Value: value, Stack: stack}
}

func (e *RecoveredPanicError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("panic handling %s: %v", e.Event, e.Value)
	if e.Stack != "" {
		msg += "\n" + e.Stack
	}
	return msg
}

// ErrorList collects the errors from releasing several resources.
// It is not safe for concurrent use.
type ErrorList struct {
	errs []error
}

// NewErrorList creates a new ErrorList.
func NewErrorList() *ErrorList {
	return &ErrorList{}
}

// Add appends err. Nil errors are ignored.
func (l *ErrorList) Add(err error) {
	if err != nil {
		l.errs = append(l.errs, err)
	}
}

// Len returns the number of errors.
func (l *ErrorList) Len() int {
	return len(l.errs)
}

// Errors returns a copy of the collected errors.
func (l *ErrorList) Errors() []error {
	return slices.Clone(l.errs)
}

// AsError returns nil when empty, the single error when there is one, and
// an errors.Join of all of them otherwise, so errors.Is sees every entry.
func (l *ErrorList) AsError() error {
	switch len(l.errs) {
	case 0:
		return nil
	case 1:
		return l.errs[0]
	default:
		return errors.Join(l.errs...)
	}
}
