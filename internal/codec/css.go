package codec

import (
	"math"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"

	"github.com/dshills/folio/internal/engine/node"
)

type declaration struct {
	property string
	value    string
}

// parseDeclarations reads an inline style attribute. Parsing stops at the
// first syntax error; declarations before it are kept.
func parseDeclarations(style string) []declaration {
	if strings.TrimSpace(style) == "" {
		return nil
	}
	p := css.NewParser(parse.NewInputString(style), true)
	var out []declaration
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return out
		case css.DeclarationGrammar:
			var sb strings.Builder
			for _, t := range p.Values() {
				if t.TokenType == css.WhitespaceToken {
					sb.WriteByte(' ')
					continue
				}
				sb.Write(t.Data)
			}
			value := strings.TrimSpace(sb.String())
			value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
			out = append(out, declaration{property: strings.ToLower(string(data)), value: value})
		}
	}
}

// inlineStyle applies the text-level declarations of n's style attribute
// to m.
func (im *importer) inlineStyle(n *html.Node, m marks) marks {
	for _, d := range parseDeclarations(attrValue(n, "style")) {
		switch d.property {
		case node.StyleColor, node.StyleFontFamily, node.StyleFontSize:
			v, err := node.NormalizeStyleValue(d.property, d.value)
			if err != nil {
				im.warn(WarnStyle, n, "", err.Error())
				continue
			}
			m.style = m.style.With(d.property, v)
		case "font-weight":
			if isBold(d.value) {
				m.format = m.format.Set(node.Bold)
			}
		case "font-style":
			if v := strings.ToLower(d.value); v == "italic" || v == "oblique" {
				m.format = m.format.Set(node.Italic)
			}
		case "text-decoration", "text-decoration-line":
			v := strings.ToLower(d.value)
			if strings.Contains(v, "underline") {
				m.format = m.format.Set(node.Underline)
			}
			if strings.Contains(v, "line-through") {
				m.format = m.format.Set(node.Strikethrough)
			}
		}
	}
	return m
}

func isBold(v string) bool {
	switch v = strings.ToLower(v); v {
	case "bold", "bolder":
		return true
	}
	n, err := strconv.Atoi(v)
	return err == nil && n >= 600
}

// blockStyle reads alignment and indent from a block element.
func (im *importer) blockStyle(n *html.Node) node.Block {
	var b node.Block
	if v, ok := attrLookup(n, "align"); ok {
		if a, err := node.ParseAlign(v); err == nil {
			b.Align = a
		}
	}
	for _, d := range parseDeclarations(attrValue(n, "style")) {
		switch d.property {
		case "text-align":
			a, err := node.ParseAlign(d.value)
			if err != nil {
				im.warn(WarnStyle, n, "", err.Error())
				continue
			}
			b.Align = a
		case "padding-inline-start", "padding-left", "margin-left", "margin-inline-start":
			if px, ok := pixels(d.value); ok && px > 0 {
				b.Indent = node.ClampIndent(int(math.Round(px / indentStep)))
			}
		}
	}
	return b
}

// pixels converts a px or em length to pixels.
func pixels(v string) (float64, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	scale := 1.0
	switch {
	case strings.HasSuffix(v, "px"):
		v = strings.TrimSuffix(v, "px")
	case strings.HasSuffix(v, "rem"):
		v, scale = strings.TrimSuffix(v, "rem"), 16
	case strings.HasSuffix(v, "em"):
		v, scale = strings.TrimSuffix(v, "em"), 16
	case v != "0":
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f * scale, true
}
