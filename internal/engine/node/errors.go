package node

import (
	"errors"
	"fmt"
)

// Errors returned by document operations.
var (
	// ErrNotFound indicates a key is not present in the document.
	ErrNotFound = errors.New("node not found")

	// ErrInvalidChild indicates a node cannot be a child of the target parent.
	ErrInvalidChild = errors.New("invalid child for parent")

	// ErrRootRemoval indicates an attempt to remove or replace the root.
	ErrRootRemoval = errors.New("cannot remove document root")

	// ErrIndexOutOfRange indicates an insertion index outside the children.
	ErrIndexOutOfRange = errors.New("child index out of range")

	// ErrInvalidPayload indicates a node payload failed validation.
	ErrInvalidPayload = errors.New("invalid node payload")
)

// InvariantError describes a violated tree invariant.
type InvariantError struct {
	Key  Key
	Rule string
}

func (e *InvariantError) Error() string {
	if e.Key == "" {
		return "invariant violated: " + e.Rule
	}
	return fmt.Sprintf("invariant violated at %s: %s", e.Key, e.Rule)
}

// PayloadError reports the payload field that failed validation.
type PayloadError struct {
	Type   Type
	Field  string
	Reason string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("invalid %s payload: %s %s", e.Type, e.Field, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidPayload).
func (e *PayloadError) Unwrap() error {
	return ErrInvalidPayload
}
