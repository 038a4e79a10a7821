// Package render presents a calendar.View as an HTML page or as a
// terminal table.
package render

import "strings"

// Highlighter matches event titles against a keyword list,
// case-insensitively.
type Highlighter struct {
	keywords []string
}

// NewHighlighter ignores blank keywords.
func NewHighlighter(keywords []string) Highlighter {
	h := Highlighter{}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			h.keywords = append(h.keywords, k)
		}
	}
	return h
}

// Match reports whether title contains any keyword.
func (h Highlighter) Match(title string) bool {
	if len(h.keywords) == 0 {
		return false
	}
	lower := strings.ToLower(title)
	for _, k := range h.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
