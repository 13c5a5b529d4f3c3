package node

import (
	"fmt"
	"strconv"
	"strings"
)

// Type identifies the variant of a Node.
type Type uint8

const (
	// TypeRoot is the document root.
	TypeRoot Type = iota
	// TypeText is a run of formatted text.
	TypeText
	// TypeParagraph is a plain paragraph block.
	TypeParagraph
	// TypeHeading is a heading block (levels 1-3).
	TypeHeading
	// TypeQuote is a block quote.
	TypeQuote
	// TypeCode is a preformatted code block.
	TypeCode
	// TypeList is an ordered or bullet list.
	TypeList
	// TypeListItem is one entry of a List.
	TypeListItem
	// TypeLink wraps text in a hyperlink.
	TypeLink
	// TypeImage is an atomic image figure.
	TypeImage
	// TypeVideo is an atomic embedded video.
	TypeVideo
	// TypeRule is an atomic horizontal rule.
	TypeRule
)

var typeNames = [...]string{
	TypeRoot:      "root",
	TypeText:      "text",
	TypeParagraph: "paragraph",
	TypeHeading:   "heading",
	TypeQuote:     "quote",
	TypeCode:      "code",
	TypeList:      "list",
	TypeListItem:  "listitem",
	TypeLink:      "link",
	TypeImage:     "image",
	TypeVideo:     "video",
	TypeRule:      "rule",
}

// String returns the type name.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// ParseType parses a type name as returned by String.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if name == s {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown node type %q", s)
}

// IsAtomic returns true for leaf types that never hold children.
func (t Type) IsAtomic() bool {
	return t == TypeImage || t == TypeVideo || t == TypeRule
}

// IsContainer returns true for blocks whose children are inline nodes.
func (t Type) IsContainer() bool {
	switch t {
	case TypeParagraph, TypeHeading, TypeQuote, TypeCode, TypeListItem:
		return true
	}
	return false
}

// IsInline returns true for nodes that live inside container blocks.
func (t Type) IsInline() bool {
	return t == TypeText || t == TypeLink
}

// IsTopLevel returns true for types allowed as direct children of the root.
func (t Type) IsTopLevel() bool {
	switch t {
	case TypeParagraph, TypeHeading, TypeQuote, TypeCode, TypeList:
		return true
	}
	return t.IsAtomic()
}

// Format is a set of character-level formatting flags.
type Format uint8

const (
	// Bold renders text in bold.
	Bold Format = 1 << iota
	// Italic renders text in italics.
	Italic
	// Underline underlines text.
	Underline
	// Strikethrough strikes text through.
	Strikethrough
)

// AllFormats lists every flag in export nesting order (outermost first).
var AllFormats = []Format{Bold, Italic, Underline, Strikethrough}

// Has returns true if every flag in x is set.
func (f Format) Has(x Format) bool {
	return f&x == x
}

// Set returns f with x added.
func (f Format) Set(x Format) Format {
	return f | x
}

// Clear returns f with x removed.
func (f Format) Clear(x Format) Format {
	return f &^ x
}

// String returns a comma-separated list of flag names.
func (f Format) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, x := range AllFormats {
		if f.Has(x) {
			names = append(names, formatName(x))
		}
	}
	return strings.Join(names, ",")
}

func formatName(f Format) string {
	switch f {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Underline:
		return "underline"
	case Strikethrough:
		return "strikethrough"
	}
	return "unknown"
}

// ParseFormat parses a single flag name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bold":
		return Bold, nil
	case "italic":
		return Italic, nil
	case "underline":
		return Underline, nil
	case "strikethrough", "strike":
		return Strikethrough, nil
	}
	return 0, fmt.Errorf("unknown format %q", s)
}

// Align is the horizontal alignment of a block.
type Align string

// Alignment values. AlignNone leaves alignment to the stylesheet.
const (
	AlignNone    Align = ""
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
	AlignStart   Align = "start"
	AlignEnd     Align = "end"
)

// ParseAlign parses an alignment value. "none" and "" map to AlignNone.
func ParseAlign(s string) (Align, error) {
	switch a := Align(strings.ToLower(strings.TrimSpace(s))); a {
	case AlignNone, AlignLeft, AlignCenter, AlignRight, AlignJustify, AlignStart, AlignEnd:
		return a, nil
	case "none":
		return AlignNone, nil
	}
	return AlignNone, fmt.Errorf("unknown alignment %q", s)
}

// MaxIndent is the deepest indent level a block can have.
const MaxIndent = 5

// ClampIndent limits an indent level to [0, MaxIndent].
func ClampIndent(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxIndent {
		return MaxIndent
	}
	return n
}

// Block holds block-level formatting shared by text containers.
type Block struct {
	Align  Align
	Indent int
}

// Dimension is an image width or height in pixels.
// The zero value means "inherit".
type Dimension int

// Inherit lets the image size follow its intrinsic or CSS size.
const Inherit Dimension = 0

// IsInherit returns true if the dimension is not fixed.
func (d Dimension) IsInherit() bool {
	return d <= 0
}

// String returns the pixel value or "inherit".
func (d Dimension) String() string {
	if d.IsInherit() {
		return "inherit"
	}
	return strconv.Itoa(int(d))
}

// ParseDimension parses a pixel value ("640", "640px") or "inherit".
func ParseDimension(s string) (Dimension, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "inherit" || s == "auto" {
		return Inherit, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "px"))
	if err != nil || n < 0 {
		return Inherit, fmt.Errorf("invalid dimension %q", s)
	}
	return Dimension(n), nil
}

// Image is the payload of an image node.
type Image struct {
	Src     string    `validate:"required,http_url,max=2048"`
	Alt     string    `validate:"max=1024"`
	Caption string    `validate:"max=4096"`
	Width   Dimension `validate:"gte=0,lte=10000"`
	Height  Dimension `validate:"gte=0,lte=10000"`
}

// Video is the payload of a video embed node.
// Source holds the URL a video was requested from until the provider
// identifier has been extracted from it; only ID is part of the document.
type Video struct {
	ID     string
	Source string
}
