// Package diagram cleans up model-produced Mermaid mind maps and renders them
// as plain-text outlines for the terminal.
package diagram

import (
	"strings"
	"unicode"
)

// DefaultHeader is prepended to sources that do not declare a diagram type.
const DefaultHeader = "graph TD"

var keywords = []string{"graph", "flowchart", "mindmap"}

// SanitizeFunc normalises raw diagram source before parsing.
type SanitizeFunc func(src string) string

// Sanitize extracts the diagram body from a model reply and makes sure it
// starts with a recognised diagram keyword. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(src string) string {
	s := strings.TrimSpace(src)

	if i := strings.Index(s, "```mermaid"); i >= 0 {
		s = fenceBody(s[i+len("```mermaid"):])
	} else if i := strings.Index(s, "```"); i >= 0 && closingOnly(s, i) {
		s = strings.TrimSpace(s[:i])
	} else if i >= 0 {
		body := s[i+3:]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			info := strings.TrimSpace(body[:nl])
			if info != "" && !strings.ContainsFunc(info, unicode.IsSpace) && !HasKeyword(info) {
				body = body[nl+1:]
			}
		}
		s = fenceBody(body)
	}

	if HasKeyword(s) {
		return s
	}
	if s == "" {
		return DefaultHeader
	}
	return DefaultHeader + "\n" + s
}

// closingOnly reports whether the fence at i closes a body that was never
// opened: content precedes it and no other fence follows.
func closingOnly(s string, i int) bool {
	return strings.TrimSpace(s[:i]) != "" && !strings.Contains(s[i+3:], "```")
}

// fenceBody returns everything up to the closing fence, trimmed.
func fenceBody(s string) string {
	if j := strings.Index(s, "```"); j >= 0 {
		s = s[:j]
	}
	return strings.TrimSpace(s)
}

// HasKeyword reports whether src opens with graph, flowchart or mindmap as a
// whole word.
func HasKeyword(src string) bool {
	for _, kw := range keywords {
		if !strings.HasPrefix(src, kw) {
			continue
		}
		rest := src[len(kw):]
		if rest == "" {
			return true
		}
		r := []rune(rest)[0]
		if unicode.IsSpace(r) || r == ';' {
			return true
		}
	}
	return false
}
