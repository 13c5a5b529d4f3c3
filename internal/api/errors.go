package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dshills/folio/internal/codec"
	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/engine/command"
	"github.com/dshills/folio/internal/engine/toolbar"
	"github.com/dshills/folio/internal/media"
)

// Errors returned by the HTTP layer.
var (
	// ErrSessionNotFound indicates an unknown or expired session ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrBadRequest indicates a malformed request body.
	ErrBadRequest = errors.New("bad request")
)

// Error is an operation failure reported to clients.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// badRequest wraps a decoding problem.
func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// statusOf maps an error to an HTTP status code.
func statusOf(err error) int {
	var ve *media.ValidationError
	var mbe *http.MaxBytesError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.As(err, &mbe), errors.Is(err, media.ErrTooLarge), errors.Is(err, codec.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, media.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, media.ErrEmpty):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrBusy), errors.Is(err, command.ErrStaleSelection):
		return http.StatusConflict
	case errors.Is(err, engine.ErrReadOnly):
		return http.StatusForbidden
	case errors.As(err, &ve),
		errors.Is(err, command.ErrInvalidNodePayload),
		errors.Is(err, command.ErrInvalidArgument),
		errors.Is(err, command.ErrHistoryCommand):
		return http.StatusUnprocessableEntity
	case errors.Is(err, toolbar.ErrNoUploader):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
