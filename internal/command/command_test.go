package command

import (
	"reflect"
	"testing"

	"github.com/abelbrown/keywatch/internal/fetch"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "set list 5", []string{"set", "list", "5"}},
		{"double_quotes", `save "my settings.json"`, []string{"save", "my settings.json"}},
		{"single_quotes", `load 'weekend project'`, []string{"load", "weekend project"}},
		{"mixed", `set default "a b".json`, []string{"set", "default", "a b.json"}},
		{"extra_spaces", "  list   ", []string{"list"}},
		{"empty", "", nil},
		{"empty_quoted", `""`, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAddKeyword(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Command
	}{
		{"quoted_all", `+"raspberry pi"`, Command{Kind: KindAddKeyword, AllSources: true, Keyword: "raspberry pi"}},
		{"quoted_source", `+reddit"golang"`, Command{Kind: KindAddKeyword, Source: fetch.SourceReddit, Keyword: "golang"}},
		{"single_quoted_source", `+hn'rust'`, Command{Kind: KindAddKeyword, Source: fetch.SourceHN, Keyword: "rust"}},
		{"bare_all", `+golang`, Command{Kind: KindAddKeyword, AllSources: true, Keyword: "golang"}},
		{"bare_source_space", `+ddg zig`, Command{Kind: KindAddKeyword, Source: fetch.SourceDDG, Keyword: "zig"}},
		{"source_space_quoted", `+reddit "machine learning"`, Command{Kind: KindAddKeyword, Source: fetch.SourceReddit, Keyword: "machine learning"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRemoveKeyword(t *testing.T) {
	got, err := Parse(`-hn"golang"`)
	if err != nil {
		t.Fatal(err)
	}
	want := Command{Kind: KindRemoveKeyword, Source: fetch.SourceHN, Keyword: "golang"}
	if got != want {
		t.Errorf("Parse = %+v, want %+v", got, want)
	}
}

func TestParseKeywordErrors(t *testing.T) {
	for _, in := range []string{`+`, `-`, `+""`, `+foo"kw"`} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail", in)
		}
	}
}

func TestParseBareSourceIsNotAKeyword(t *testing.T) {
	// A source name with no keyword after it must error, not track the
	// source name itself as a keyword on all sources.
	for _, in := range []string{"+reddit", "-hn", "+ddg "} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail with a missing-keyword error", in)
		}
	}
	// The keyword "reddit" is still reachable by quoting it.
	got, err := Parse(`+"reddit"`)
	if err != nil {
		t.Fatal(err)
	}
	want := Command{Kind: KindAddKeyword, AllSources: true, Keyword: "reddit"}
	if got != want {
		t.Errorf("Parse = %+v, want %+v", got, want)
	}
}

func TestParseSourceLimit(t *testing.T) {
	got, err := Parse("~reddit 3")
	if err != nil {
		t.Fatal(err)
	}
	want := Command{Kind: KindSourceLimit, Source: fetch.SourceReddit, N: 3}
	if got != want {
		t.Errorf("Parse = %+v, want %+v", got, want)
	}

	got, err = Parse("~hn default")
	if err != nil {
		t.Fatal(err)
	}
	want = Command{Kind: KindSourceLimit, Source: fetch.SourceHN, Default: true}
	if got != want {
		t.Errorf("Parse = %+v, want %+v", got, want)
	}

	got, err = Parse("~ddg")
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindShowSettings || got.Source != fetch.SourceDDG {
		t.Errorf("bare ~source should show settings, got %+v", got)
	}
}

func TestParseSourceLimitErrors(t *testing.T) {
	for _, in := range []string{"~", "~twitter 3", "~reddit many", "~reddit -1"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail", in)
		}
	}
}

func TestParseSet(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"set list 5", Command{Kind: KindGlobalLimit, N: 5}},
		{"set interval 30", Command{Kind: KindInterval, N: 30}},
		{"set default other.json", Command{Kind: KindSetDefault, File: "other.json"}},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseSetErrors(t *testing.T) {
	for _, in := range []string{"set", "set list", "set list five", "set interval 0", "set volume 11"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail", in)
		}
	}
}

func TestParseFileCommands(t *testing.T) {
	got, err := Parse("save backup.json")
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindSave || got.File != "backup.json" {
		t.Errorf("save parse = %+v", got)
	}

	got, err = Parse("load back")
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindLoad || got.File != "back" {
		t.Errorf("load parse = %+v", got)
	}

	for _, in := range []string{"save", "load"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail without a filename", in)
		}
	}
}

func TestParseUtilityCommands(t *testing.T) {
	kinds := map[string]Kind{
		"fetch":   KindFetch,
		"list":    KindList,
		"clear":   KindClear,
		"help":    KindHelp,
		"exit":    KindExit,
		"quit":    KindExit,
		"FETCH":   KindFetch, // action token is case-normalized
		"history": KindHistory,
	}

	for in, kind := range kinds {
		got, err := Parse(in)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", in, err)
			continue
		}
		if got.Kind != kind {
			t.Errorf("Parse(%q).Kind = %v, want %v", in, got.Kind, kind)
		}
	}
}

func TestParseHistoryCount(t *testing.T) {
	got, err := Parse("history 5")
	if err != nil {
		t.Fatal(err)
	}
	if got.N != 5 {
		t.Errorf("history count = %d, want 5", got.N)
	}

	got, err = Parse("history")
	if err != nil {
		t.Fatal(err)
	}
	if got.N != 20 {
		t.Errorf("default history count = %d, want 20", got.N)
	}

	if _, err := Parse("history zero"); err == nil {
		t.Error("bad history count should fail")
	}
}

func TestParseUnknown(t *testing.T) {
	if _, err := Parse("frobnicate"); err == nil {
		t.Error("unknown command should fail")
	}
	if _, err := Parse("   "); err == nil {
		t.Error("blank line should fail")
	}
}
