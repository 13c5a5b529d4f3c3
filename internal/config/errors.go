package config

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by configuration operations.
var (
	// ErrFileNotFound indicates the configuration file doesn't exist.
	ErrFileNotFound = errors.New("config file not found")

	// ErrUnsupportedFormat indicates a file extension with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrValidationFailed indicates the configuration fails validation.
	ErrValidationFailed = errors.New("validation failed")
)

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	// Path is the file path that failed to parse.
	Path string
	// Line is the line number where the error occurred (if available).
	Line int
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// FieldError describes one invalid setting.
type FieldError struct {
	// Path is the dotted setting path, e.g. "logging.level".
	Path string
	// Rule is the failed validation rule.
	Rule string
	// Param is the rule parameter, if any.
	Param string
	// Value is the invalid value.
	Value any
}

func (e FieldError) String() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: must satisfy %s=%s (value: %v)", e.Path, e.Rule, e.Param, e.Value)
	}
	return fmt.Sprintf("%s: must satisfy %s (value: %v)", e.Path, e.Rule, e.Value)
}

// ValidationError lists every invalid setting of a configuration.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

// Is matches ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
