// Package codec converts documents to and from HTML.
//
// Export is deterministic: every node type has exactly one rendering and
// the output of Export imports back into an equal document. Import accepts
// arbitrary HTML and degrades what it does not recognize, reporting each
// substitution as a Warning rather than failing.
//
// Markdown input is converted to HTML with goldmark and then imported, and
// Compact minifies exported HTML for publishing.
package codec

import (
	"sync"

	"github.com/tdewolff/minify/v2"
)

// Default embed frame size.
const (
	DefaultVideoWidth  = 560
	DefaultVideoHeight = 315
)

// DefaultMaxInputBytes bounds the size of imported markup.
const DefaultMaxInputBytes = 4 << 20

// Codec holds export and import settings. A Codec is safe for concurrent
// use.
type Codec struct {
	videoWidth  int
	videoHeight int
	videoTitle  string
	maxInput    int

	minifyOnce sync.Once
	minifier   *minify.M
}

// Option configures a Codec.
type Option func(*Codec)

// WithVideoSize sets the width and height attributes of exported embed
// frames.
func WithVideoSize(width, height int) Option {
	return func(c *Codec) {
		if width > 0 && height > 0 {
			c.videoWidth = width
			c.videoHeight = height
		}
	}
}

// WithVideoTitle sets the title attribute of exported embed frames.
func WithVideoTitle(title string) Option {
	return func(c *Codec) {
		if title != "" {
			c.videoTitle = title
		}
	}
}

// WithMaxInputBytes limits the size of markup accepted by Import.
// Zero or a negative value disables the limit.
func WithMaxInputBytes(n int) Option {
	return func(c *Codec) {
		c.maxInput = n
	}
}

// New creates a codec.
func New(opts ...Option) *Codec {
	c := &Codec{
		videoWidth:  DefaultVideoWidth,
		videoHeight: DefaultVideoHeight,
		videoTitle:  "Embedded video",
		maxInput:    DefaultMaxInputBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = New()

// Default returns the shared codec with default settings.
func Default() *Codec {
	return defaultCodec
}
