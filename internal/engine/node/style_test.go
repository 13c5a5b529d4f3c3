package node

import "testing"

func TestNormalizeStyleValue(t *testing.T) {
	tests := []struct {
		prop  string
		value string
		want  string
		err   bool
	}{
		{StyleColor, "#F00", "#ff0000", false},
		{StyleColor, "rgb(0, 128, 255)", "#0080ff", false},
		{StyleColor, "red; x: y", "", true},
		{StyleFontFamily, "Georgia,serif", "Georgia, serif", false},
		{StyleFontFamily, "Times New Roman , serif", "Times New Roman, serif", false},
		{StyleFontFamily, `"Fira Sans", sans-serif`, "'Fira Sans', sans-serif", false},
		{StyleFontFamily, "'Fira Sans', sans-serif", "'Fira Sans', sans-serif", false},
		{StyleFontFamily, "Arial; color: red", "", true},
		{StyleFontFamily, "Arial { }", "", true},
		{StyleFontFamily, `Ari\61l`, "", true},
		{StyleFontFamily, `"Fira`, "", true},
		{StyleFontFamily, `"Fira" Sans`, "", true},
		{StyleFontFamily, "url(x)", "", true},
		{StyleFontFamily, ",", "", true},
		{StyleFontSize, "18", "18px", false},
		{StyleFontSize, "18PX", "18px", false},
		{StyleFontSize, "1.50em", "1.5em", false},
		{StyleFontSize, "120%", "120%", false},
		{StyleFontSize, "X-Large", "x-large", false},
		{StyleFontSize, "0", "", true},
		{StyleFontSize, "-2px", "", true},
		{StyleFontSize, "12furlongs", "", true},
		{StyleFontSize, "1em; position: fixed", "", true},
		{StyleFontSize, "12px 14px", "", true},
		{StyleFontSize, "huge", "", true},
		{StyleFontSize, "", "", false},
	}
	for _, tt := range tests {
		got, err := NormalizeStyleValue(tt.prop, tt.value)
		if tt.err {
			if err == nil {
				t.Errorf("NormalizeStyleValue(%s, %q) = %q, want error", tt.prop, tt.value, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizeStyleValue(%s, %q) = %q, %v; want %q", tt.prop, tt.value, got, err, tt.want)
			continue
		}
		again, err := NormalizeStyleValue(tt.prop, got)
		if err != nil || again != got {
			t.Errorf("NormalizeStyleValue(%s, %q) is not stable: %q, %v", tt.prop, got, again, err)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	tests := map[string]string{
		"a\r\nb":     "a\nb",
		"a\rb\fc":    "a\nb\nc",
		"e\u0301":    "\u00e9",
		"nul\x00ok":  "nulok",
		"plain text": "plain text",
	}
	for in, want := range tests {
		if got := NormalizeText(in); got != want {
			t.Errorf("NormalizeText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCollapseBreaks(t *testing.T) {
	tests := map[string]string{
		"line1\nline2":      "line1 line2",
		"\n  lead":          "lead",
		"trail \n":          "trail",
		"keep  two\tspaces": "keep  two\tspaces",
		"a \n\n b":          "a b",
	}
	for in, want := range tests {
		if got := CollapseBreaks(in); got != want {
			t.Errorf("CollapseBreaks(%q) = %q, want %q", in, got, want)
		}
	}
}
