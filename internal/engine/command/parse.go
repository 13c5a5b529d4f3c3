package command

import (
	"fmt"
	"strings"

	"github.com/dshills/folio/internal/engine/node"
)

// Args supplies the named arguments of a command decoded from an external
// source such as a JSON request or a script. Missing arguments read as the
// zero value.
type Args interface {
	String(name string) string
}

// MapArgs is an Args backed by a map.
type MapArgs map[string]string

// String implements Args.
func (m MapArgs) String(name string) string { return m[name] }

// Kinds lists every command kind accepted by Parse.
var Kinds = []Kind{
	KindFormatText, KindSetBlockType, KindSetAlignment, KindIndent, KindOutdent,
	KindToggleLink, KindInsertNode, KindInsertText, KindInsertParagraph,
	KindDeleteBackward, KindDeleteForward, KindSetTextStyle, KindClearFormatting,
	KindUndo, KindRedo,
}

// ParseKind parses a command kind, ignoring case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: command %q", ErrInvalidArgument, s)
}

// Parse builds a command of the given kind from its arguments:
//
//	FORMAT_TEXT      format (bold, italic, underline, strikethrough)
//	SET_BLOCK_TYPE   type (paragraph, h1, h2, h3, quote, code, bullet, number)
//	SET_ALIGNMENT    align (start, left, center, right, justify)
//	TOGGLE_LINK      url (empty unwraps)
//	INSERT_NODE      node (image, video, rule); image: src, alt, caption,
//	                 width, height; video: url or id
//	INSERT_TEXT      text
//	SET_TEXT_STYLE   property, value (empty removes)
//
// The remaining kinds take no arguments.
func Parse(kind Kind, args Args) (Command, error) {
	switch kind {
	case KindFormatText:
		f, err := node.ParseFormat(args.String("format"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return FormatText{Format: f}, nil
	case KindSetBlockType:
		t, err := ParseBlockType(args.String("type"))
		if err != nil {
			return nil, err
		}
		return SetBlockType{Type: t}, nil
	case KindSetAlignment:
		a, err := node.ParseAlign(args.String("align"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return SetAlignment{Align: a}, nil
	case KindIndent:
		return Indent{}, nil
	case KindOutdent:
		return Outdent{}, nil
	case KindToggleLink:
		return ToggleLink{URL: args.String("url")}, nil
	case KindInsertNode:
		n, err := parseNode(args)
		if err != nil {
			return nil, err
		}
		return InsertNode{Node: n}, nil
	case KindInsertText:
		return InsertText{Text: args.String("text")}, nil
	case KindInsertParagraph:
		return InsertParagraph{}, nil
	case KindDeleteBackward:
		return DeleteBackward{}, nil
	case KindDeleteForward:
		return DeleteForward{}, nil
	case KindSetTextStyle:
		return SetTextStyle{Property: args.String("property"), Value: args.String("value")}, nil
	case KindClearFormatting:
		return ClearFormatting{}, nil
	case KindUndo:
		return Undo{}, nil
	case KindRedo:
		return Redo{}, nil
	}
	return nil, fmt.Errorf("%w: command %q", ErrInvalidArgument, kind)
}

func parseNode(args Args) (*node.Node, error) {
	name := strings.ToLower(args.String("node"))
	if name == "hr" {
		name = node.TypeRule.String()
	}
	t, err := node.ParseType(name)
	if err != nil {
		return nil, fmt.Errorf("%w: node %q", ErrInvalidArgument, args.String("node"))
	}
	switch t {
	case node.TypeImage:
		img := node.Image{
			Src:     args.String("src"),
			Alt:     args.String("alt"),
			Caption: args.String("caption"),
		}
		if img.Width, err = node.ParseDimension(args.String("width")); err != nil {
			return nil, &InvalidNodePayloadError{Type: node.TypeImage, Field: "Width", Reason: "is not a dimension", Err: err}
		}
		if img.Height, err = node.ParseDimension(args.String("height")); err != nil {
			return nil, &InvalidNodePayloadError{Type: node.TypeImage, Field: "Height", Reason: "is not a dimension", Err: err}
		}
		return node.NewImage(img), nil
	case node.TypeVideo:
		return node.NewVideo(node.Video{ID: args.String("id"), Source: args.String("url")}), nil
	case node.TypeRule:
		return node.NewRule(), nil
	}
	return nil, &InvalidNodePayloadError{Type: t, Field: "Type", Reason: "is not an embeddable leaf"}
}
