package codec

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"

	"github.com/dshills/folio/internal/engine/node"
	"github.com/dshills/folio/internal/media"
)

// Import parses an HTML fragment into a document using the default codec.
func Import(src string) (*node.Document, []Warning, error) {
	return defaultCodec.Import(src)
}

// Import parses an HTML fragment into a normalized document. Elements the
// document model cannot represent are degraded and reported as warnings;
// only oversized or unreadable input is an error. Empty input yields a
// document with one empty paragraph.
func (c *Codec) Import(src string) (*node.Document, []Warning, error) {
	if c.maxInput > 0 && len(src) > c.maxInput {
		return nil, nil, fmt.Errorf("import %d bytes: %w", len(src), ErrInputTooLarge)
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(norm.NFC.String(src)), body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}

	doc, err := node.FromRoot(node.NewRoot())
	if err != nil {
		return nil, nil, err
	}
	im := &importer{doc: doc}
	for _, n := range nodes {
		im.block(n)
	}
	im.closeBlock()
	if im.err != nil {
		return nil, im.warns, fmt.Errorf("build document: %w", im.err)
	}
	doc.Normalize(nil)
	return doc, im.warns, nil
}

// recognizer maps a root-level element to document nodes.
type recognizer struct {
	name  string
	match func(n *html.Node) bool
	build func(im *importer, n *html.Node)
}

// recognizers is tried in order; the last entry matches everything.
var recognizers []recognizer

func init() {
	recognizers = []recognizer{
		{"image", isImage, (*importer).image},
		{"video", isVideo, (*importer).video},
		{"rule", is(atom.Hr), (*importer).rule},
		{"heading", isHeading, (*importer).heading},
		{"quote", is(atom.Blockquote), (*importer).quote},
		{"code", is(atom.Pre), (*importer).code},
		{"list", isList, (*importer).listBlock},
		{"paragraph", is(atom.P), (*importer).paragraph},
		{"dropped", isDropped, (*importer).drop},
		{"block", isBlockElement, (*importer).genericBlock},
		{"inline", func(*html.Node) bool { return true }, (*importer).inlineFallback},
	}
}

// importer builds the document while walking the markup. Inline content
// goes into cur, a container opened on demand from proto. When an element
// that must live at the root (an image, a list, ...) appears inside inline
// content, the open container is closed and a continuation is reopened from
// proto afterwards.
type importer struct {
	doc   *node.Document
	warns []Warning
	err   error

	cur     *node.Node
	proto   *node.Node
	list    *node.Node
	ordered bool
	depth   int
	pre     bool

	pending   bool
	lastSpace bool
}

func (im *importer) warn(kind WarningKind, n *html.Node, fallback, detail string) {
	im.warns = append(im.warns, Warning{Kind: kind, Element: n.Data, Fallback: fallback, Detail: detail})
}

func (im *importer) attach(parent, n *node.Node) {
	if err := im.doc.Append(parent, n); err != nil && im.err == nil {
		im.err = err
	}
}

// block handles a node at root level.
func (im *importer) block(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		im.text(n.Data, marks{}, "")
		return
	case html.ElementNode:
	default:
		return
	}
	for _, r := range recognizers {
		if r.match(n) {
			r.build(im, n)
			return
		}
	}
}

// attachBlock places a top-level node or list item at the end of the
// document.
func (im *importer) attachBlock(n *node.Node) {
	if n.Type == node.TypeListItem {
		if im.list == nil {
			im.list = node.NewList(im.ordered)
			im.attach(im.doc.Root(), im.list)
		}
		im.attach(im.list, n)
		return
	}
	im.attach(im.doc.Root(), n)
}

// open starts an explicit block.
func (im *importer) open(n *node.Node) {
	im.closeBlock()
	im.attachBlock(n)
	im.cur, im.proto = n, template(n)
}

func (im *importer) closeBlock() {
	im.cur, im.proto = nil, nil
	im.pre = false
	im.pending, im.lastSpace = false, false
}

// container returns the open inline container, reopening it from proto or
// starting an implicit paragraph.
func (im *importer) container() *node.Node {
	if im.cur != nil {
		return im.cur
	}
	n := node.NewParagraph()
	if im.proto != nil {
		n = template(im.proto)
	}
	im.attachBlock(n)
	im.cur = n
	return n
}

func template(n *node.Node) *node.Node {
	t := n.Clone()
	t.Key = ""
	return t
}

// escape closes the open container, runs fn at root level and arranges for
// following inline content to continue in a copy of the closed container.
func (im *importer) escape(fn func()) {
	cur, proto, pre, ordered, depth := im.cur, im.proto, im.pre, im.ordered, im.depth
	if cur != nil && len(cur.Children) == 0 {
		im.doc.Detach(cur)
	}
	if proto == nil && cur != nil {
		proto = template(cur)
	}
	im.closeBlock()
	im.list = nil
	fn()
	im.closeBlock()
	im.list = nil
	im.proto, im.pre, im.ordered, im.depth = proto, pre, ordered, depth
}

// marks carries inherited text formatting.
type marks struct {
	format node.Format
	style  node.Style
}

// text appends character data. Outside code blocks, whitespace runs that
// contain a line break collapse to a single space and are dropped at block
// edges; other whitespace is kept as written.
func (im *importer) text(data string, m marks, href string) {
	if im.pre {
		im.appendText(data, m, href)
		return
	}
	var sb strings.Builder
	flush := func() {
		if sb.Len() > 0 {
			im.appendText(sb.String(), m, href)
			sb.Reset()
		}
	}
	for i := 0; i < len(data); {
		j := i
		for j < len(data) && isSpace(data[j]) {
			j++
		}
		if j > i {
			if run := data[i:j]; strings.ContainsAny(run, "\n\r\f") {
				flush()
				im.pending = true
			} else {
				sb.WriteString(run)
			}
			i = j
			continue
		}
		for j < len(data) && !isSpace(data[j]) {
			j++
		}
		sb.WriteString(data[i:j])
		i = j
	}
	flush()
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

func (im *importer) appendText(s string, m marks, href string) {
	if s == "" {
		return
	}
	if im.cur == nil && !im.pre && strings.Trim(s, " \t") == "" {
		return
	}
	c := im.container()
	if im.pending {
		if len(c.Children) > 0 && !im.lastSpace && s[0] != ' ' {
			s = " " + s
		}
		im.pending = false
	}
	parent := c
	if href != "" {
		var last *node.Node
		if k := len(c.Children); k > 0 {
			last = c.Children[k-1]
		}
		if last == nil || last.Type != node.TypeLink || last.URL != href {
			last = node.NewLink(href)
			im.attach(c, last)
		}
		parent = last
	}
	im.attach(parent, node.NewStyledText(s, m.format, m.style.Clone()))
	im.lastSpace = strings.HasSuffix(s, " ") || strings.HasSuffix(s, "\n")
}

func (im *importer) lineBreak(m marks, href string) {
	im.pending = false
	im.appendText("\n", m, href)
}

// separate starts a new line when a nested block follows content in the
// open container.
func (im *importer) separate() {
	if im.cur != nil && len(im.cur.Children) > 0 && !endsWithBreak(im.cur) {
		im.lineBreak(marks{}, "")
		return
	}
	im.pending = false
}

func endsWithBreak(c *node.Node) bool {
	texts := c.Texts()
	return len(texts) > 0 && strings.HasSuffix(texts[len(texts)-1].Text, "\n")
}

// inline walks n as inline content of the open container.
func (im *importer) inline(n *html.Node, m marks, href string) {
	switch n.Type {
	case html.TextNode:
		im.text(n.Data, m, href)
		return
	case html.ElementNode:
	default:
		return
	}
	if isDropped(n) {
		im.drop(n)
		return
	}
	m = im.inlineStyle(n, m)

	switch n.DataAtom {
	case atom.Br:
		im.lineBreak(m, href)
		return
	case atom.B, atom.Strong:
		m.format = m.format.Set(node.Bold)
	case atom.I, atom.Em:
		m.format = m.format.Set(node.Italic)
	case atom.U, atom.Ins:
		m.format = m.format.Set(node.Underline)
	case atom.S, atom.Strike, atom.Del:
		m.format = m.format.Set(node.Strikethrough)
	case atom.Span:
	case atom.Code, atom.Kbd, atom.Samp, atom.Tt:
		if !im.pre {
			im.warn(WarnUnknownInline, n, "text", "")
		}
	case atom.A:
		if href == "" {
			href = im.linkTarget(n)
		}
	case atom.Img, atom.Figure, atom.Iframe, atom.Hr:
		im.escape(func() { im.block(n) })
		return
	case atom.Ul, atom.Ol:
		if im.proto != nil && im.proto.Type == node.TypeListItem {
			im.nestedList(n)
		} else {
			im.escape(func() { im.block(n) })
		}
		return
	default:
		if isBlockElement(n) {
			im.separate()
		} else {
			im.warn(WarnUnknownInline, n, "text", "")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		im.inline(c, m, href)
	}
}

func (im *importer) inlineChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		im.inline(c, marks{}, "")
	}
}

// linkTarget returns the href of a link element, or "" when the element
// cannot become a link.
func (im *importer) linkTarget(n *html.Node) string {
	href := strings.TrimSpace(attrValue(n, "href"))
	switch {
	case href == "":
		im.warn(WarnUnknownInline, n, "text", "missing href")
		return ""
	case !node.SafeURL(href):
		im.warn(WarnUnsafeLink, n, "text", href)
		return ""
	}
	return href
}

func (im *importer) image(n *html.Node) {
	im.closeBlock()
	el := n
	var caption string
	if n.DataAtom == atom.Figure {
		el = find(n, atom.Img)
		if fc := find(n, atom.Figcaption); fc != nil {
			caption = node.CollapseBreaks(textContent(fc))
		}
	}
	img := node.Image{
		Src:     strings.TrimSpace(attrValue(el, "src")),
		Alt:     attrValue(el, "alt"),
		Caption: caption,
	}
	img.Width = im.dimension(el, "width")
	img.Height = im.dimension(el, "height")

	leaf := node.NewImage(img)
	if err := node.ValidatePayload(leaf); err != nil {
		im.warn(WarnInvalidMedia, n, "", err.Error())
		return
	}
	im.attach(im.doc.Root(), leaf)
}

func (im *importer) dimension(n *html.Node, name string) node.Dimension {
	v, ok := attrLookup(n, name)
	if !ok {
		return node.Inherit
	}
	d, err := node.ParseDimension(v)
	if err != nil {
		im.warn(WarnInvalidMedia, n, "inherit", err.Error())
		return node.Inherit
	}
	return d
}

func (im *importer) video(n *html.Node) {
	im.closeBlock()
	el := n
	if n.DataAtom == atom.Figure {
		el = find(n, atom.Iframe)
	}
	src := strings.TrimSpace(attrValue(el, "src"))
	id, ok := media.VideoIDFromEmbed(src)
	if !ok {
		im.warn(WarnInvalidMedia, el, "", "unrecognized embed source "+src)
		return
	}
	im.attach(im.doc.Root(), node.NewVideo(node.Video{ID: id}))
}

func (im *importer) rule(*html.Node) {
	im.closeBlock()
	im.attach(im.doc.Root(), node.NewRule())
}

func (im *importer) heading(n *html.Node) {
	level := headingLevel(n.DataAtom)
	switch n.DataAtom {
	case atom.H4, atom.H5, atom.H6:
		im.warn(WarnHeadingLevel, n, "h3", "")
	}
	h := node.NewHeading(level)
	h.Block = im.blockStyle(n)
	im.open(h)
	im.inlineChildren(n)
	im.closeBlock()
}

func (im *importer) quote(n *html.Node) {
	q := node.NewQuote()
	q.Block = im.blockStyle(n)
	im.open(q)
	im.inlineChildren(n)
	im.closeBlock()
}

func (im *importer) code(n *html.Node) {
	c := node.NewCode()
	c.Block = im.blockStyle(n)
	im.open(c)
	im.pre = true
	im.inlineChildren(n)
	im.closeBlock()
}

func (im *importer) paragraph(n *html.Node) {
	p := node.NewParagraph()
	p.Block = im.blockStyle(n)
	im.open(p)
	im.inlineChildren(n)
	im.closeBlock()
}

func (im *importer) listBlock(n *html.Node) {
	im.closeBlock()
	im.list = nil
	im.ordered = n.DataAtom == atom.Ol
	im.listItems(n, 0)
	im.closeBlock()
	im.list = nil
	im.depth = 0
}

func (im *importer) listItems(n *html.Node, depth int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.ElementNode && c.DataAtom == atom.Li:
			im.listItem(c, depth)
		case isList(c):
			im.depth = depth
			im.proto = node.NewListItem()
			im.nestedList(c)
			im.closeBlock()
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
		case c.Type == html.ElementNode || c.Type == html.TextNode:
			item := node.NewListItem()
			item.Block.Indent = node.ClampIndent(depth)
			im.open(item)
			im.depth = depth
			im.inline(c, marks{}, "")
			im.closeBlock()
		}
	}
}

func (im *importer) listItem(li *html.Node, depth int) {
	item := node.NewListItem()
	item.Block = im.blockStyle(li)
	item.Block.Indent = node.ClampIndent(item.Block.Indent + depth)
	im.open(item)
	im.depth = depth
	im.inlineChildren(li)
	im.closeBlock()
}

// nestedList flattens a list inside a list item into items one level
// deeper, continuing the outer item afterwards.
func (im *importer) nestedList(n *html.Node) {
	im.warn(WarnNestedList, n, "indented items", "")
	proto, depth := im.proto, im.depth
	if im.cur != nil && len(im.cur.Children) == 0 {
		im.doc.Detach(im.cur)
	}
	im.closeBlock()
	im.listItems(n, depth+1)
	im.closeBlock()
	im.proto, im.depth = proto, depth
}

func (im *importer) drop(n *html.Node) {
	im.warn(WarnDropped, n, "", "")
}

// genericBlock unwraps an unknown block element that holds other blocks
// and turns one holding only inline content into a paragraph.
func (im *importer) genericBlock(n *html.Node) {
	if hasBlockChild(n) {
		im.warn(WarnUnknownBlock, n, "", "unwrapped")
		im.closeBlock()
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			im.block(c)
		}
		im.closeBlock()
		return
	}
	im.warn(WarnUnknownBlock, n, "paragraph", "")
	p := node.NewParagraph()
	p.Block = im.blockStyle(n)
	im.open(p)
	im.inlineChildren(n)
	im.closeBlock()
}

func (im *importer) inlineFallback(n *html.Node) {
	im.inline(n, marks{}, "")
}

func is(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.DataAtom == a }
}

func isImage(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Img:
		return true
	case atom.Figure:
		return find(n, atom.Img) != nil
	}
	return false
}

func isVideo(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Iframe:
		return true
	case atom.Figure:
		return find(n, atom.Iframe) != nil
	}
	return false
}

func isHeading(n *html.Node) bool {
	return headingLevel(n.DataAtom) > 0
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4, atom.H5, atom.H6:
		return node.ClampLevel(4)
	}
	return 0
}

func isList(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.DataAtom == atom.Ul || n.DataAtom == atom.Ol)
}

var droppedElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Template: true, atom.Noscript: true,
	atom.Head: true, atom.Title: true, atom.Meta: true, atom.Link: true, atom.Base: true,
	atom.Object: true, atom.Embed: true, atom.Video: true, atom.Audio: true,
	atom.Canvas: true, atom.Svg: true, atom.Math: true,
	atom.Input: true, atom.Button: true, atom.Select: true, atom.Textarea: true,
}

func isDropped(n *html.Node) bool {
	return droppedElements[n.DataAtom]
}

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Body: true, atom.Caption: true, atom.Center: true, atom.Dd: true,
	atom.Details: true, atom.Dialog: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hgroup: true, atom.Hr: true,
	atom.Html: true, atom.Li: true, atom.Main: true, atom.Menu: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Summary: true,
	atom.Table: true, atom.Tbody: true, atom.Td: true, atom.Tfoot: true, atom.Th: true,
	atom.Thead: true, atom.Tr: true, atom.Ul: true,
}

func isBlockElement(n *html.Node) bool {
	return n.Type == html.ElementNode && blockElements[n.DataAtom]
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isBlockElement(c) {
			return true
		}
	}
	return false
}

// find returns the first descendant element with the given atom.
func find(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if f := find(c, a); f != nil {
			return f
		}
	}
	return nil
}

func attrLookup(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrValue(n *html.Node, key string) string {
	v, _ := attrLookup(n, key)
	return v
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
