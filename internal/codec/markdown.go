package codec

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dshills/folio/internal/engine/node"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
)

// ImportMarkdown converts markdown to HTML and imports the result. Raw HTML
// embedded in the markdown is not passed through.
func (c *Codec) ImportMarkdown(src []byte) (*node.Document, []Warning, error) {
	if c.maxInput > 0 && len(src) > c.maxInput {
		return nil, nil, fmt.Errorf("import %d bytes: %w", len(src), ErrInputTooLarge)
	}
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return nil, nil, fmt.Errorf("convert markdown: %w", err)
	}
	return c.Import(buf.String())
}
