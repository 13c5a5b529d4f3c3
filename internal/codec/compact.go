package codec

import (
	"fmt"

	"github.com/tdewolff/minify/v2"
	mcss "github.com/tdewolff/minify/v2/css"
	mhtml "github.com/tdewolff/minify/v2/html"

	"github.com/dshills/folio/internal/engine/node"
)

func (c *Codec) compactor() *minify.M {
	c.minifyOnce.Do(func() {
		m := minify.New()
		m.AddFunc("text/css", mcss.Minify)
		m.Add("text/html", &mhtml.Minifier{
			KeepDefaultAttrVals: true,
			KeepEndTags:         true,
		})
		c.minifier = m
	})
	return c.minifier
}

// Compact minifies exported HTML for publishing. Whitespace runs inside
// text collapse, so the result is not meant to be imported back.
func (c *Codec) Compact(src string) (string, error) {
	out, err := c.compactor().String("text/html", src)
	if err != nil {
		return "", fmt.Errorf("compact html: %w", err)
	}
	return out, nil
}

// Publish exports doc and compacts the result.
func (c *Codec) Publish(doc *node.Document) (string, error) {
	s, err := c.Export(doc)
	if err != nil {
		return "", err
	}
	return c.Compact(s)
}
