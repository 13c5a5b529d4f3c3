package codec

import (
	"errors"
	"fmt"
)

// Errors returned by the codec.
var (
	// ErrInputTooLarge is returned when imported markup exceeds the limit.
	ErrInputTooLarge = errors.New("input too large")

	// ErrUnknownNode is returned when export meets a node type it cannot
	// render.
	ErrUnknownNode = errors.New("unknown node type")
)

// WarningKind classifies an import degradation.
type WarningKind uint8

const (
	// WarnUnknownBlock means an unrecognized block element became a
	// paragraph or was unwrapped.
	WarnUnknownBlock WarningKind = iota + 1
	// WarnUnknownInline means an unrecognized inline element became plain
	// text.
	WarnUnknownInline
	// WarnUnsafeLink means a link with a disallowed target was reduced to
	// its text.
	WarnUnsafeLink
	// WarnInvalidMedia means an image or embed frame was dropped because
	// its source could not be accepted.
	WarnInvalidMedia
	// WarnHeadingLevel means a heading deeper than level 3 was clamped.
	WarnHeadingLevel
	// WarnNestedList means a nested list was flattened into indented items.
	WarnNestedList
	// WarnDropped means an element and its content were discarded.
	WarnDropped
	// WarnStyle means a style declaration was ignored.
	WarnStyle
)

var warningNames = map[WarningKind]string{
	WarnUnknownBlock:  "unknown-block",
	WarnUnknownInline: "unknown-inline",
	WarnUnsafeLink:    "unsafe-link",
	WarnInvalidMedia:  "invalid-media",
	WarnHeadingLevel:  "heading-level",
	WarnNestedList:    "nested-list",
	WarnDropped:       "dropped",
	WarnStyle:         "style",
}

// String returns the kind name.
func (k WarningKind) String() string {
	if s, ok := warningNames[k]; ok {
		return s
	}
	return fmt.Sprintf("warning(%d)", k)
}

// Warning reports a non-fatal substitution made during import.
type Warning struct {
	Kind WarningKind
	// Element is the tag name of the source element.
	Element string
	// Fallback names what the element became, if anything.
	Fallback string
	Detail   string
}

// String describes the warning.
func (w Warning) String() string {
	s := fmt.Sprintf("%s: <%s>", w.Kind, w.Element)
	if w.Fallback != "" {
		s += " as " + w.Fallback
	}
	if w.Detail != "" {
		s += ": " + w.Detail
	}
	return s
}
