package media

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedType indicates an upload is not an accepted image type.
	ErrUnsupportedType = errors.New("unsupported media type")

	// ErrTooLarge indicates an upload exceeds the configured size limit.
	ErrTooLarge = errors.New("media too large")

	// ErrEmpty indicates an upload without content.
	ErrEmpty = errors.New("empty upload")
)

// ValidationError is a user-facing rejection of a media source.
// Hosts show Message to the author; it is not an engine failure.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Message)
}
