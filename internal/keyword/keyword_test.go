package keyword

import (
	"reflect"
	"testing"

	"github.com/abelbrown/keywatch/internal/fetch"
)

func TestAddRemoveRoundTrip(t *testing.T) {
	s := New()
	s.Add(fetch.SourceReddit, "golang")

	before := s.BySource(fetch.SourceReddit)

	s.Add(fetch.SourceReddit, "rust")
	s.Remove(fetch.SourceReddit, "rust")

	after := s.BySource(fetch.SourceReddit)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("expected set %v after round trip, got %v", before, after)
	}
}

func TestAddIdempotent(t *testing.T) {
	s := New()
	if !s.Add(fetch.SourceHN, "golang") {
		t.Error("first add should report a change")
	}
	if s.Add(fetch.SourceHN, "golang") {
		t.Error("second add should be a no-op")
	}
	if got := s.BySource(fetch.SourceHN); len(got) != 1 {
		t.Errorf("expected 1 keyword, got %d", len(got))
	}
}

func TestAddCaseInsensitiveMembership(t *testing.T) {
	s := New()
	s.Add(fetch.SourceHN, "Pi")
	if s.Add(fetch.SourceHN, "pi") {
		t.Error("case variant should be a no-op")
	}

	got := s.BySource(fetch.SourceHN)
	if len(got) != 1 || got[0] != "Pi" {
		t.Errorf("expected [Pi] (first casing kept), got %v", got)
	}
}

func TestAddEmptyIgnored(t *testing.T) {
	s := New()
	if s.Add(fetch.SourceDDG, "") {
		t.Error("empty keyword should be ignored")
	}
	if s.Add(fetch.SourceDDG, "   ") {
		t.Error("whitespace-only keyword should be ignored")
	}
	if !s.Empty() {
		t.Error("store should still be empty")
	}
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	s := New()
	s.Add(fetch.SourceReddit, "golang")
	if s.Remove(fetch.SourceReddit, "rust") {
		t.Error("removing absent keyword should report no change")
	}
	if got := s.BySource(fetch.SourceReddit); len(got) != 1 {
		t.Errorf("expected set unchanged, got %v", got)
	}
}

func TestScopeIndependentPerSource(t *testing.T) {
	s := New()
	s.Add(fetch.SourceReddit, "golang")
	s.Add(fetch.SourceHN, "golang")
	s.Remove(fetch.SourceReddit, "golang")

	if got := s.BySource(fetch.SourceReddit); len(got) != 0 {
		t.Errorf("reddit should be empty, got %v", got)
	}
	if got := s.BySource(fetch.SourceHN); len(got) != 1 {
		t.Errorf("hn should keep its keyword, got %v", got)
	}
}

func TestAllCollapsesUnion(t *testing.T) {
	s := New()
	s.Add(fetch.SourceReddit, "golang")
	s.Add(fetch.SourceHN, "Golang")
	s.Add(fetch.SourceHN, "rust")
	s.Add(fetch.SourceDDG, "zig")

	got := s.All()
	want := []string{"golang", "rust", "zig"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("All() = %v, want %v", got, want)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	s.Add(fetch.SourceReddit, "golang")

	snap := s.Snapshot()
	snap[fetch.SourceReddit][0] = "mutated"

	if got := s.BySource(fetch.SourceReddit); got[0] != "golang" {
		t.Errorf("snapshot mutation leaked into store: %v", got)
	}
}

func TestReplaceDropsEmptyAndDuplicates(t *testing.T) {
	s := New()
	s.Add(fetch.SourceReddit, "old")

	s.Replace(map[fetch.Source][]string{
		fetch.SourceHN: {"golang", "  ", "GOLANG", "rust"},
	})

	if got := s.BySource(fetch.SourceReddit); len(got) != 0 {
		t.Errorf("replace should drop prior keywords, got %v", got)
	}
	got := s.BySource(fetch.SourceHN)
	want := []string{"golang", "rust"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BySource(hn) = %v, want %v", got, want)
	}
}
