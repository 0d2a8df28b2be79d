package transcript

import (
	"strings"
)

// Indent prefixes every line of text with margin, empty lines included.
func Indent(text string, margin string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = margin + l
	}
	return strings.Join(lines, "\n")
}

// Dedent removes the leading whitespace common to all non-blank lines.
// Lines holding only whitespace are emptied and do not take part in the
// computation of the common margin.
func Dedent(text string) string {
	lines := strings.Split(text, "\n")

	margin := ""
	first := true
	for i, l := range lines {
		if strings.TrimLeft(l, " \t") == "" {
			lines[i] = ""
			continue
		}
		lead := l[:len(l)-len(strings.TrimLeft(l, " \t"))]
		if first {
			margin = lead
			first = false
			continue
		}
		margin = commonPrefix(margin, lead)
	}

	if margin == "" {
		return strings.Join(lines, "\n")
	}

	for i, l := range lines {
		lines[i] = strings.TrimPrefix(l, margin)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
