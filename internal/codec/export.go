package codec

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/media"
)

// indentStep is the inline padding of one indent level, in pixels.
const indentStep = 40

// Export renders doc as an HTML fragment using the default codec.
func Export(doc *node.Document) (string, error) {
	return defaultCodec.Export(doc)
}

// Export renders doc as an HTML fragment.
func (c *Codec) Export(doc *node.Document) (string, error) {
	var sb strings.Builder
	if err := c.Write(&sb, doc); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Write renders doc as an HTML fragment to w.
func (c *Codec) Write(w io.Writer, doc *node.Document) error {
	nodes, err := c.exportNode(doc.Root(), false)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("render %s: %w", n.Data, err)
		}
	}
	return nil
}

// exportNode maps one document node to HTML nodes. pre is set inside code
// blocks, where line breaks are kept as text.
func (c *Codec) exportNode(n *node.Node, pre bool) ([]*html.Node, error) {
	switch n.Type {
	case node.TypeRoot:
		return c.exportChildren(n, pre)

	case node.TypeText:
		return exportText(n, pre), nil

	case node.TypeParagraph:
		return c.exportContainer(n, atom.P, false)

	case node.TypeHeading:
		a := atom.H1
		switch n.Level {
		case 2:
			a = atom.H2
		case 3:
			a = atom.H3
		}
		return c.exportContainer(n, a, false)

	case node.TypeQuote:
		return c.exportContainer(n, atom.Blockquote, false)

	case node.TypeCode:
		return c.exportContainer(n, atom.Pre, true)

	case node.TypeList:
		a := atom.Ul
		if n.Ordered {
			a = atom.Ol
		}
		el := element(a)
		if err := c.appendChildren(el, n, false); err != nil {
			return nil, err
		}
		return []*html.Node{el}, nil

	case node.TypeListItem:
		return c.exportContainer(n, atom.Li, false)

	case node.TypeLink:
		el := element(atom.A, attr("href", n.URL))
		if err := c.appendChildren(el, n, pre); err != nil {
			return nil, err
		}
		return []*html.Node{el}, nil

	case node.TypeImage:
		return []*html.Node{exportImage(n.Image)}, nil

	case node.TypeVideo:
		return []*html.Node{c.exportVideo(n.Video)}, nil

	case node.TypeRule:
		return []*html.Node{element(atom.Hr)}, nil
	}
	return nil, fmt.Errorf("export %s: %w", n.Type, ErrUnknownNode)
}

func (c *Codec) exportChildren(n *node.Node, pre bool) ([]*html.Node, error) {
	var out []*html.Node
	for _, child := range n.Children {
		nodes, err := c.exportNode(child, pre)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

func (c *Codec) appendChildren(el *html.Node, n *node.Node, pre bool) error {
	nodes, err := c.exportChildren(n, pre)
	if err != nil {
		return err
	}
	for _, h := range nodes {
		el.AppendChild(h)
	}
	return nil
}

func (c *Codec) exportContainer(n *node.Node, a atom.Atom, pre bool) ([]*html.Node, error) {
	el := element(a)
	if css := blockCSS(n.Block); css != "" {
		el.Attr = append(el.Attr, attr("style", css))
	}
	if err := c.appendChildren(el, n, pre); err != nil {
		return nil, err
	}
	return []*html.Node{el}, nil
}

// blockCSS renders non-default alignment and indent.
func blockCSS(b node.Block) string {
	var parts []string
	if b.Align != node.AlignNone {
		parts = append(parts, "text-align: "+string(b.Align))
	}
	if b.Indent > 0 {
		parts = append(parts, "padding-inline-start: "+strconv.Itoa(b.Indent*indentStep)+"px")
	}
	return strings.Join(parts, "; ")
}

// markTags wrap text innermost first.
var markTags = []struct {
	format node.Format
	tag    atom.Atom
}{
	{node.Strikethrough, atom.S},
	{node.Underline, atom.U},
	{node.Italic, atom.Em},
	{node.Bold, atom.Strong},
}

// exportText renders a text run. Outside code blocks line breaks become
// <br> elements. Format flags wrap the text and the style map becomes an
// outer span.
func exportText(n *node.Node, pre bool) []*html.Node {
	var inner []*html.Node
	if pre {
		inner = append(inner, textNode(n.Text))
	} else {
		for i, line := range strings.Split(n.Text, "\n") {
			if i > 0 {
				inner = append(inner, element(atom.Br))
			}
			if line != "" {
				inner = append(inner, textNode(line))
			}
		}
	}

	for _, m := range markTags {
		if n.Format.Has(m.format) {
			inner = []*html.Node{wrap(element(m.tag), inner)}
		}
	}
	if css := n.Style.CSS(); css != "" {
		inner = []*html.Node{wrap(element(atom.Span, attr("style", css)), inner)}
	}
	return inner
}

func exportImage(img node.Image) *html.Node {
	attrs := []html.Attribute{attr("src", img.Src), attr("alt", img.Alt)}
	if !img.Width.IsInherit() {
		attrs = append(attrs, attr("width", img.Width.String()))
	}
	if !img.Height.IsInherit() {
		attrs = append(attrs, attr("height", img.Height.String()))
	}
	fig := element(atom.Figure)
	fig.AppendChild(element(atom.Img, attrs...))
	if img.Caption != "" {
		fig.AppendChild(wrap(element(atom.Figcaption), []*html.Node{textNode(img.Caption)}))
	}
	return fig
}

func (c *Codec) exportVideo(v node.Video) *html.Node {
	return element(atom.Iframe,
		attr("src", media.EmbedURL(v.ID)),
		attr("width", strconv.Itoa(c.videoWidth)),
		attr("height", strconv.Itoa(c.videoHeight)),
		attr("title", c.videoTitle),
		attr("frameborder", "0"),
		attr("allowfullscreen", ""),
	)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func wrap(el *html.Node, children []*html.Node) *html.Node {
	for _, c := range children {
		el.AppendChild(c)
	}
	return el
}
