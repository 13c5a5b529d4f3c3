package node

import (
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var payloadValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every tree invariant and returns the violations found.
// A nil result means the document is well formed.
func Validate(d *Document) []error {
	var errs []error
	fail := func(n *Node, rule string) {
		var k Key
		if n != nil {
			k = n.Key
		}
		errs = append(errs, &InvariantError{Key: k, Rule: rule})
	}

	if d.root == nil || d.root.Type != TypeRoot {
		fail(d.root, "document root must be a root node")
		return errs
	}
	if len(d.root.Children) == 0 {
		fail(d.root, "root must hold at least one block")
	}

	seen := make(map[Key]bool, len(d.index))
	var visit func(n *Node)
	visit = func(n *Node) {
		if n.Key == "" {
			fail(n, "node has no key")
		} else if seen[n.Key] {
			fail(n, "duplicate key")
		}
		seen[n.Key] = true
		if d.index[n.Key] != n {
			fail(n, "node missing from index")
		}

		switch {
		case n.Type.IsAtomic():
			if len(n.Children) > 0 {
				fail(n, "atomic leaf has children")
			}
			if n.Format != 0 || len(n.Style) > 0 {
				fail(n, "atomic leaf carries text formatting")
			}
			if n.parent != nil && n.parent.Type != TypeRoot {
				fail(n, "atomic leaf nested below root level")
			}
		case n.Type == TypeText:
			if n.Text == "" {
				fail(n, "empty text node")
			}
			if len(n.Children) > 0 {
				fail(n, "text node has children")
			}
		case n.Type == TypeHeading:
			if n.Level < 1 || n.Level > 3 {
				fail(n, "heading level out of range")
			}
		}
		if n.Block.Indent < 0 || n.Block.Indent > MaxIndent {
			fail(n, "indent out of range")
		}

		for i, c := range n.Children {
			if c.parent != n {
				fail(c, "parent link mismatch")
			}
			if !Allows(n.Type, c.Type) {
				fail(c, c.Type.String()+" not allowed in "+n.Type.String())
			}
			if i > 0 {
				prev := n.Children[i-1]
				if c.Type == TypeText && prev.Type == TypeText && SameMarks(prev, c) {
					fail(c, "adjacent text nodes with identical marks")
				}
			}
			visit(c)
		}
	}
	visit(d.root)

	if len(seen) != len(d.index) {
		fail(nil, "index holds detached nodes")
	}
	return errs
}

// ValidatePayload checks the payload of a node about to be inserted.
// Video nodes must carry an ID or a Source; resolving Source into an ID is
// left to the caller.
func ValidatePayload(n *Node) error {
	switch n.Type {
	case TypeImage:
		if err := payloadValidator.Struct(n.Image); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return &PayloadError{Type: n.Type, Field: verrs[0].Field(), Reason: describeTag(verrs[0])}
			}
			return &PayloadError{Type: n.Type, Field: "Image", Reason: err.Error()}
		}
	case TypeVideo:
		if n.Video.ID == "" && n.Video.Source == "" {
			return &PayloadError{Type: n.Type, Field: "ID", Reason: "is required"}
		}
	case TypeLink:
		if !SafeURL(n.URL) {
			return &PayloadError{Type: n.Type, Field: "URL", Reason: "is not a safe link target"}
		}
	case TypeHeading:
		if n.Level < 1 || n.Level > 3 {
			return &PayloadError{Type: n.Type, Field: "Level", Reason: "must be between 1 and 3"}
		}
	}
	if len(n.Children) > 0 && n.Type.IsAtomic() {
		return &PayloadError{Type: n.Type, Field: "Children", Reason: "must be empty"}
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "http_url":
		return "must be an absolute http or https URL"
	case "max":
		return "exceeds " + fe.Param() + " characters"
	case "gte", "lte":
		return "is out of range"
	}
	return "failed " + fe.Tag()
}

var safeSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"tel":    true,
}

// SafeURL reports whether raw is an acceptable link target: http, https,
// mailto, tel, or a relative reference. Scripting schemes are rejected.
func SafeURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		// Reject obfuscated schemes such as "java\tscript:" that the
		// parser leaves in the path.
		return !strings.Contains(strings.ToLower(strings.SplitN(u.Path, "/", 2)[0]), ":")
	}
	return safeSchemes[strings.ToLower(u.Scheme)]
}
