package node

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Style properties a text node may carry.
const (
	StyleFontFamily = "font-family"
	StyleColor      = "color"
	StyleFontSize   = "font-size"
)

// StyleProperties lists the supported properties in export order.
var StyleProperties = []string{StyleColor, StyleFontFamily, StyleFontSize}

// Style maps CSS properties to values for a text run.
type Style map[string]string

// IsStyleProperty returns true if name is a supported style property.
func IsStyleProperty(name string) bool {
	for _, p := range StyleProperties {
		if p == name {
			return true
		}
	}
	return false
}

// Clone returns a copy of the style. Empty styles clone to nil.
func (s Style) Clone() Style {
	if len(s) == 0 {
		return nil
	}
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Equal compares two styles, treating nil and empty as equal.
func (s Style) Equal(other Style) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// With returns a copy with name set to value, or removed when value is empty.
func (s Style) With(name, value string) Style {
	out := s.Clone()
	if value == "" {
		delete(out, name)
		if len(out) == 0 {
			return nil
		}
		return out
	}
	if out == nil {
		out = make(Style, 1)
	}
	out[name] = value
	return out
}

// CSS renders the style as a declaration list with sorted properties.
func (s Style) CSS() string {
	if len(s) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+s[k])
	}
	return strings.Join(parts, "; ")
}

// NormalizeStyleValue canonicalizes a value for the given property.
// Colors given as hex or rgb() become lowercase #rrggbb; named colors
// pass through lowercased.
func NormalizeStyleValue(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	switch name {
	case StyleColor:
		return NormalizeColor(value)
	case StyleFontSize:
		return normalizeFontSize(value)
	case StyleFontFamily:
		return normalizeFontFamily(value)
	}
	return "", fmt.Errorf("unsupported style property %q", name)
}

// NormalizeColor converts hex and rgb() colors to #rrggbb.
func NormalizeColor(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case strings.HasPrefix(v, "#"):
		if len(v) == 4 {
			v = "#" + strings.Repeat(v[1:2], 2) + strings.Repeat(v[2:3], 2) + strings.Repeat(v[3:4], 2)
		}
		c, err := colorful.Hex(v)
		if err != nil {
			return "", fmt.Errorf("invalid color %q: %w", value, err)
		}
		return c.Hex(), nil
	case strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")"):
		parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(v, "rgb("), ")"), ",")
		if len(parts) != 3 {
			return "", fmt.Errorf("invalid color %q", value)
		}
		var rgb [3]float64
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 || n > 255 {
				return "", fmt.Errorf("invalid color %q", value)
			}
			rgb[i] = float64(n) / 255
		}
		return colorful.Color{R: rgb[0], G: rgb[1], B: rgb[2]}.Hex(), nil
	}
	for _, r := range v {
		if (r < 'a' || r > 'z') && r != '-' {
			return "", fmt.Errorf("invalid color %q", value)
		}
	}
	return v, nil
}

// fontSizeKeywords are the absolute and relative size keywords.
var fontSizeKeywords = map[string]bool{
	"xx-small": true, "x-small": true, "small": true, "medium": true,
	"large": true, "x-large": true, "xx-large": true, "xxx-large": true,
	"smaller": true, "larger": true,
}

// fontSizeUnits are the length units accepted for font sizes.
var fontSizeUnits = map[string]bool{
	"px": true, "pt": true, "em": true, "rem": true, "ex": true, "ch": true, "vw": true, "vh": true,
}

// normalizeFontFamily rewrites a family list as "A B, 'C D', serif".
// A family is either a run of identifiers or one quoted string; any other
// token, such as ";" or a function, is rejected.
func normalizeFontFamily(value string) (string, error) {
	invalid := fmt.Errorf("invalid font family %q", value)
	var (
		families []string
		words    []string
		quoted   string
	)
	next := func() {
		switch {
		case quoted != "":
			families = append(families, quoted)
		case len(words) > 0:
			families = append(families, strings.Join(words, " "))
		}
		words, quoted = nil, ""
	}

	l := css.NewLexer(parse.NewInputString(value))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if l.Err() != io.EOF {
				return "", invalid
			}
			next()
			if len(families) == 0 {
				return "", invalid
			}
			return strings.Join(families, ", "), nil
		case css.WhitespaceToken:
		case css.CommaToken:
			next()
		case css.IdentToken:
			if quoted != "" || strings.ContainsRune(string(data), '\\') {
				return "", invalid
			}
			words = append(words, string(data))
		case css.StringToken:
			name, ok := unquote(data)
			if !ok || quoted != "" || len(words) > 0 {
				return "", invalid
			}
			quoted = "'" + name + "'"
		default:
			return "", invalid
		}
	}
}

// unquote strips the quotes of a CSS string token. Strings with escapes,
// nested quotes or no closing quote are refused.
func unquote(data []byte) (string, bool) {
	if len(data) < 3 || data[0] != data[len(data)-1] {
		return "", false
	}
	inner := string(data[1 : len(data)-1])
	if strings.ContainsAny(inner, "\\'\"\n") || strings.TrimSpace(inner) == "" {
		return "", false
	}
	return inner, true
}

// normalizeFontSize accepts one positive number, length, percentage or size
// keyword. Bare numbers are pixels.
func normalizeFontSize(value string) (string, error) {
	invalid := fmt.Errorf("invalid font size %q", value)
	var out string
	l := css.NewLexer(parse.NewInputString(strings.ToLower(value)))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if l.Err() != io.EOF || out == "" {
				return "", invalid
			}
			return out, nil
		case css.WhitespaceToken:
			continue
		}
		if out != "" {
			return "", invalid
		}
		v := string(data)
		switch tt {
		case css.NumberToken:
			n, ok := positive(v)
			if !ok {
				return "", invalid
			}
			out = n + "px"
		case css.PercentageToken:
			n, ok := positive(strings.TrimSuffix(v, "%"))
			if !ok {
				return "", invalid
			}
			out = n + "%"
		case css.DimensionToken:
			i := len(v)
			for i > 0 && v[i-1] >= 'a' && v[i-1] <= 'z' {
				i--
			}
			n, ok := positive(v[:i])
			if !ok || !fontSizeUnits[v[i:]] {
				return "", invalid
			}
			out = n + v[i:]
		case css.IdentToken:
			if !fontSizeKeywords[v] {
				return "", invalid
			}
			out = v
		default:
			return "", invalid
		}
	}
}

// positive formats a number greater than zero in its shortest form.
func positive(s string) (string, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}
