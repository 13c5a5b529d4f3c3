package node

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n", "\x00", "")

// NormalizeText returns s in NFC with every line break written as "\n".
// NUL characters are dropped.
func NormalizeText(s string) string {
	return norm.NFC.String(newlines.Replace(s))
}

// CollapseBreaks turns s into a single line: whitespace runs holding a line
// break become one space, or nothing at either end of s. Other whitespace
// is kept as written.
func CollapseBreaks(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); {
		j := i
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j == i {
			for j < len(s) && !isSpace(s[j]) {
				j++
			}
			sb.WriteString(s[i:j])
			i = j
			continue
		}
		run := s[i:j]
		switch {
		case !strings.ContainsAny(run, "\n\r\f"):
			sb.WriteString(run)
		case i > 0 && j < len(s):
			sb.WriteByte(' ')
		}
		i = j
	}
	return sb.String()
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
