package command

import (
	"strings"

	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/engine/selection"
)

// ToggleLink links or unlinks the selection.
//
// With the selection inside a single link, an empty URL or the link's own
// URL removes that link and any other URL retargets it. With a range
// outside a single link, an empty URL removes every link it touches and a
// non-empty URL wraps exactly the selected text, replacing the links it
// overlaps.
type ToggleLink struct {
	URL string
}

// Kind implements Command.
func (ToggleLink) Kind() Kind { return KindToggleLink }

// Description implements Command.
func (c ToggleLink) Description() string {
	if c.URL == "" {
		return "Remove link"
	}
	return "Link to " + c.URL
}

// Validate implements Validator.
func (c ToggleLink) Validate() error {
	u := c.target()
	if u != "" && !node.SafeURL(u) {
		return &InvalidNodePayloadError{Type: node.TypeLink, Field: "URL", Reason: "is not a safe link target"}
	}
	return nil
}

// target returns the URL as it is stored and exported.
func (c ToggleLink) target() string {
	return node.NormalizeText(strings.TrimSpace(c.URL))
}

// Apply implements Command.
func (c ToggleLink) Apply(tx *Transaction) error {
	url := c.target()
	tx.canonicalize()
	start, end := tx.bounds()

	if l := tx.enclosingLink(*start, *end); l != nil {
		if url == "" || url == l.URL {
			must(tx.Doc.Unwrap(l))
		} else {
			l.URL = url
		}
		return nil
	}
	if tx.Selection.IsCollapsed() {
		return nil
	}

	texts := tx.selectedTexts()
	if url == "" {
		seen := make(map[*node.Node]bool)
		for _, t := range texts {
			if l := t.Parent(); l.Type == node.TypeLink && !seen[l] {
				seen[l] = true
				must(tx.Doc.Unwrap(l))
			}
		}
		return nil
	}

	for _, t := range texts {
		tx.liftFromLink(t)
	}
	for _, run := range siblingRuns(texts) {
		link := node.NewLink(url)
		must(tx.Doc.InsertBefore(run[0], link))
		must(tx.Doc.Append(link, run...))
	}
	return nil
}

// enclosingLink returns the link holding both points, or nil.
func (tx *Transaction) enclosingLink(a, b selection.Point) *node.Node {
	na, nb := tx.Doc.Get(a.Key), tx.Doc.Get(b.Key)
	if na == nil || nb == nil {
		return nil
	}
	la, lb := na.Ancestor(node.TypeLink), nb.Ancestor(node.TypeLink)
	if la == nil || la != lb {
		return nil
	}
	return la
}

// liftFromLink moves text node t out of its link into the link's parent,
// splitting the link around it.
func (tx *Transaction) liftFromLink(t *node.Node) {
	l := t.Parent()
	if l.Type != node.TypeLink {
		return
	}
	tx.splitElement(l, t.Index()+1)
	must(tx.Doc.InsertAfter(l, t))
}

// siblingRuns groups nodes into runs of consecutive siblings.
func siblingRuns(nodes []*node.Node) [][]*node.Node {
	var runs [][]*node.Node
	for _, n := range nodes {
		if k := len(runs); k > 0 {
			run := runs[k-1]
			if last := run[len(run)-1]; last.Parent() == n.Parent() && last.NextSibling() == n {
				runs[k-1] = append(run, n)
				continue
			}
		}
		runs = append(runs, []*node.Node{n})
	}
	return runs
}
