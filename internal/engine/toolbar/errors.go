package toolbar

import "errors"

// Errors returned by toolbar actions.
var (
	// ErrNoUploader indicates a file insert without an upload capability.
	ErrNoUploader = errors.New("no uploader configured")
)
