// Package sanitize strips markup from free-text fields before they are
// stored and later rendered in emails or the dashboard.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Text removes HTML tags, decodes entities and strips again so encoded tags
// cannot survive. Surrounding whitespace is trimmed.
func Text(s string) string {
	out := tagPattern.ReplaceAllString(s, "")
	out = html.UnescapeString(out)
	out = tagPattern.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// Line is Text with internal whitespace runs collapsed to one space, for
// single-line values such as names and titles.
func Line(s string) string {
	return strings.Join(strings.Fields(Text(s)), " ")
}
