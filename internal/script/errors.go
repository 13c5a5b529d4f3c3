package script

import (
	"errors"
	"fmt"
)

// Errors returned by script execution.
var (
	// ErrCompile indicates the script source failed to parse.
	ErrCompile = errors.New("script does not compile")

	// ErrTimeout is returned when a script runs past its deadline.
	ErrTimeout = errors.New("script timed out")

	// ErrCommandLimit is returned when a script dispatches more commands
	// than allowed.
	ErrCommandLimit = errors.New("script command limit exceeded")
)

// Error reports a failed script run. Err is the engine error that stopped
// the script when there is one, so errors.Is and errors.As see through it.
type Error struct {
	Script string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("script %s: %v", e.Script, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
