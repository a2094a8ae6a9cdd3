package fetch

import (
	"regexp"
	"strings"
)

// maxSnippetLen caps snippet text for display and matching.
const maxSnippetLen = 280

// htmlTagRe matches HTML tags.
var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// whitespaceRe matches runs of whitespace.
var whitespaceRe = regexp.MustCompile(`\s+`)

// snippetText strips HTML tags, collapses whitespace, and caps the result.
// Feed descriptions arrive as HTML fragments; matching and display both
// want plain text.
func snippetText(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return truncate(strings.TrimSpace(s), maxSnippetLen)
}

// truncate shortens s to maxLen runes, ellipsizing when it cuts.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
