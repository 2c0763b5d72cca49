package helpers

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = sync.OnceValue(bluemonday.StrictPolicy)

// StripHTML drops every element and attribute from s. Entities stay escaped.
func StripHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(stripPolicy().Sanitize(s))
}

// PlainText turns a provider fragment such as a search snippet into a single
// line of unescaped text.
func PlainText(s string) string {
	return CollapseWhitespace(html.UnescapeString(StripHTML(s)))
}

// CollapseWhitespace replaces every run of whitespace with a single space and
// trims both ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
