package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrBusy indicates a dispatch was attempted while another transaction
	// or batch is open.
	ErrBusy = errors.New("engine is busy")

	// ErrReadOnly indicates a mutation was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")
)
