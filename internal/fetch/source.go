package fetch

// Source identifies one of the supported content providers.
type Source string

const (
	SourceReddit Source = "reddit"
	SourceHN     Source = "hn"
	SourceDDG    Source = "ddg"
)

// AllSources returns the fixed set of supported sources in display order.
func AllSources() []Source {
	return []Source{SourceReddit, SourceHN, SourceDDG}
}

// ParseSource converts a user-supplied name into a Source.
// Returns false for anything outside the fixed set.
func ParseSource(name string) (Source, bool) {
	switch Source(name) {
	case SourceReddit, SourceHN, SourceDDG:
		return Source(name), true
	}
	return "", false
}
