package command

import (
	"errors"
	"fmt"

	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/engine/selection"
)

// Errors returned by command execution.
var (
	// ErrStaleSelection indicates the selection references a missing node.
	ErrStaleSelection = errors.New("stale selection")

	// ErrInvalidNodePayload indicates a node payload failed validation.
	ErrInvalidNodePayload = errors.New("invalid node payload")

	// ErrCommandPanic indicates a command panicked and was rolled back.
	ErrCommandPanic = errors.New("command panicked")

	// ErrHistoryCommand indicates UNDO or REDO was applied as a mutation.
	ErrHistoryCommand = errors.New("history commands are handled by the engine")

	// ErrInvalidArgument indicates a malformed command argument.
	ErrInvalidArgument = errors.New("invalid command argument")
)

// StaleSelectionError reports a selection point that no longer resolves.
type StaleSelectionError struct {
	Point selection.Point
}

func (e *StaleSelectionError) Error() string {
	return fmt.Sprintf("stale selection: %s does not resolve", e.Point)
}

// Unwrap allows errors.Is(err, ErrStaleSelection).
func (e *StaleSelectionError) Unwrap() error {
	return ErrStaleSelection
}

// InvalidNodePayloadError reports why a node was rejected before insertion.
type InvalidNodePayloadError struct {
	Type   node.Type
	Field  string
	Reason string
	Err    error
}

func (e *InvalidNodePayloadError) Error() string {
	msg := fmt.Sprintf("invalid %s payload: %s %s", e.Type, e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrInvalidNodePayload.
func (e *InvalidNodePayloadError) Is(target error) bool {
	return target == ErrInvalidNodePayload
}

// Unwrap returns the underlying validation error, if any.
func (e *InvalidNodePayloadError) Unwrap() error {
	return e.Err
}

func payloadError(err error) error {
	var pe *node.PayloadError
	if errors.As(err, &pe) {
		return &InvalidNodePayloadError{Type: pe.Type, Field: pe.Field, Reason: pe.Reason}
	}
	return err
}
