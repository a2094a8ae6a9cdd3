// Package filter provides pure pipeline functions over fetched items:
// deduplication, keyword matching with highlighting, per-source limiting,
// and recency ranking. All functions are []in, []out with no side effects.
package filter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/abelbrown/keywatch/internal/fetch"
)

// Markup pair wrapped around every keyword hit in highlighted text.
// The UI translates these spans into terminal bold.
const (
	BoldOpen  = "{bold}"
	BoldClose = "{/bold}"
)

// Matched is a raw item that matched at least one tracked keyword.
type Matched struct {
	fetch.Item

	// Keywords that matched, in discovery order.
	Keywords []string
	// Highlighted is title + " " + snippet with every whole-word match
	// wrapped in the BoldOpen/BoldClose pair.
	Highlighted string
}

// Dedup collapses items sharing a URL; the first occurrence wins.
// Items without a URL cannot be identified and are always kept.
func Dedup(items []fetch.Item) []fetch.Item {
	if len(items) == 0 {
		return []fetch.Item{}
	}

	seen := make(map[string]bool)
	result := make([]fetch.Item, 0, len(items))
	for _, item := range items {
		if item.URL != "" {
			if seen[item.URL] {
				continue
			}
			seen[item.URL] = true
		}
		result = append(result, item)
	}
	return result
}

// wordPattern compiles a case-insensitive whole-word pattern for one
// keyword. QuoteMeta keeps keywords with punctuation literal. A \b
// anchor is applied only where the keyword's edge is a word character:
// \b between punctuation and a space never matches, which would make a
// keyword like "c++" unmatchable.
func wordPattern(keyword string) *regexp.Regexp {
	runes := []rune(keyword)
	pattern := `(?i)`
	if isWordRune(runes[0]) {
		pattern += `\b`
	}
	pattern += regexp.QuoteMeta(keyword)
	if isWordRune(runes[len(runes)-1]) {
		pattern += `\b`
	}
	return regexp.MustCompile(pattern)
}

// isWordRune reports whether r is a \w word character (ASCII semantics,
// matching \b).
func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z')
}

// Match scans each item's title and snippet against the full keyword set
// and keeps only items with at least one whole-word, case-insensitive
// match. Queries return adjacent results that never mention a tracked
// keyword as a whole word; those are noise and are dropped here.
func Match(items []fetch.Item, keywords []string) []Matched {
	if len(items) == 0 || len(keywords) == 0 {
		return []Matched{}
	}

	patterns := make([]*regexp.Regexp, len(keywords))
	for i, kw := range keywords {
		patterns[i] = wordPattern(kw)
	}

	result := make([]Matched, 0, len(items))
	for _, item := range items {
		text := item.Title + " " + item.Snippet

		var hits []string
		var spans [][]int
		for i, p := range patterns {
			locs := p.FindAllStringIndex(text, -1)
			if len(locs) == 0 {
				continue
			}
			hits = append(hits, keywords[i])
			spans = append(spans, locs...)
		}
		if len(hits) == 0 {
			continue
		}

		result = append(result, Matched{
			Item:        item,
			Keywords:    hits,
			Highlighted: strings.TrimSpace(highlight(text, spans)),
		})
	}
	return result
}

// highlight wraps every matched span of text in the markup pair.
// Spans from different keywords may overlap ("raspberry pi" and "pi");
// overlapping spans are merged first so markers never nest.
func highlight(text string, spans [][]int) string {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i][0] != spans[j][0] {
			return spans[i][0] < spans[j][0]
		}
		return spans[i][1] > spans[j][1]
	})

	var b strings.Builder
	prev := 0
	for i := 0; i < len(spans); {
		start, end := spans[i][0], spans[i][1]
		for i++; i < len(spans) && spans[i][0] <= end; i++ {
			if spans[i][1] > end {
				end = spans[i][1]
			}
		}
		b.WriteString(text[prev:start])
		b.WriteString(BoldOpen)
		b.WriteString(text[start:end])
		b.WriteString(BoldClose)
		prev = end
	}
	b.WriteString(text[prev:])
	return b.String()
}

// Limits holds the per-source caps applied after matching.
type Limits struct {
	// PerSource overrides, keyed by source. A value of 0 is valid and
	// suppresses the source entirely.
	PerSource map[fetch.Source]int
	// Global applies to any source without an override.
	Global int
}

// For returns the effective limit for one source.
func (l Limits) For(src fetch.Source) int {
	if n, ok := l.PerSource[src]; ok {
		return n
	}
	return l.Global
}

// LimitPerSource caps each source's matched items at its effective limit,
// keeping the head of arrival order. Limiting happens before any recency
// sort: the cap is a per-source noise cap, not a "top N most recent".
func LimitPerSource(items []Matched, limits Limits) []Matched {
	if len(items) == 0 {
		return []Matched{}
	}

	counts := make(map[fetch.Source]int)
	result := make([]Matched, 0, len(items))
	for _, item := range items {
		if counts[item.Source] >= limits.For(item.Source) {
			continue
		}
		counts[item.Source]++
		result = append(result, item)
	}
	return result
}

// SortByPublished orders items newest first. Items without a publish
// timestamp (zero time) sort as the oldest. The sort is otherwise stable.
func SortByPublished(items []Matched) []Matched {
	result := append([]Matched(nil), items...)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Published.After(result[j].Published)
	})
	return result
}
