package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
)

func TestSnippetText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"strips tags", `<p>hello <b>world</b></p>`, "hello world"},
		{"collapses whitespace", "hello\n\t  world", "hello world"},
		{"trims edges", "  <div>hello</div>  ", "hello"},
		{"empty", "", ""},
		{"only markup", "<br/><hr>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := snippetText(tt.in); got != tt.want {
				t.Errorf("snippetText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSnippetTextCapsLength(t *testing.T) {
	long := strings.Repeat("a", maxSnippetLen+50)
	got := snippetText(long)
	if len([]rune(got)) != maxSnippetLen {
		t.Errorf("capped snippet is %d runes, want %d", len([]rune(got)), maxSnippetLen)
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("capped snippet should end with ellipsis")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this gets cut here", 10, "this ge..."},
		{"ab", 2, "ab"},
		{"abcd", 3, "abc"},
		{"héllo wörld", 8, "héllo..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestUnwrapRedirect(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{
			"wrapped link",
			"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpost&rut=abc",
			"https://example.com/post",
		},
		{
			"direct link",
			"https://example.com/direct",
			"https://example.com/direct",
		},
		{
			"wrapper without destination",
			"//duckduckgo.com/l/?rut=abc",
			"//duckduckgo.com/l/?rut=abc",
		},
		{
			"unrelated path with uddg param",
			"https://example.com/page?uddg=nope",
			"https://example.com/page?uddg=nope",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unwrapRedirect(tt.href); got != tt.want {
				t.Errorf("unwrapRedirect(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestConvertFeedItem(t *testing.T) {
	pub := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	upd := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)

	t.Run("published wins over updated", func(t *testing.T) {
		item := convertFeedItem(&gofeed.Item{
			Title:           "a post",
			Link:            "https://example.com/a",
			PublishedParsed: &pub,
			UpdatedParsed:   &upd,
		}, SourceReddit)
		if !item.Published.Equal(pub) {
			t.Errorf("Published = %v, want %v", item.Published, pub)
		}
		if item.Source != SourceReddit {
			t.Errorf("Source = %s, want reddit", item.Source)
		}
	})

	t.Run("falls back to updated", func(t *testing.T) {
		item := convertFeedItem(&gofeed.Item{UpdatedParsed: &upd}, SourceHN)
		if !item.Published.Equal(upd) {
			t.Errorf("Published = %v, want %v", item.Published, upd)
		}
	})

	t.Run("zero when undated", func(t *testing.T) {
		item := convertFeedItem(&gofeed.Item{Title: "undated"}, SourceHN)
		if !item.Published.IsZero() {
			t.Errorf("Published = %v, want zero", item.Published)
		}
	})

	t.Run("snippet stripped of markup", func(t *testing.T) {
		item := convertFeedItem(&gofeed.Item{
			Description: `<p>plain <em>text</em> here</p>`,
		}, SourceReddit)
		if item.Snippet != "plain text here" {
			t.Errorf("Snippet = %q", item.Snippet)
		}
		if item.Raw != `<p>plain <em>text</em> here</p>` {
			t.Errorf("Raw should keep the original fragment, got %q", item.Raw)
		}
	})
}

func rssDoc(entries ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>test</title>` +
		strings.Join(entries, "") + `</channel></rss>`
}

func rssEntry(title, link string, published time.Time) string {
	date := ""
	if !published.IsZero() {
		date = "<pubDate>" + published.Format(time.RFC1123Z) + "</pubDate>"
	}
	return fmt.Sprintf("<item><title>%s</title><link>%s</link>%s</item>", title, link, date)
}

func testFeedAdapter(serverURL string) *feedAdapter {
	return &feedAdapter{
		source:   SourceHN,
		queryURL: func(keyword string) string { return serverURL + "?q=" + keyword },
		client:   newClient(5 * time.Second),
		limiter:  newLimiter(),
		parser:   gofeed.NewParser(),
	}
}

func TestFeedAdapterFetch(t *testing.T) {
	recent := time.Now().Add(-time.Hour)
	stale := time.Now().Add(-recencyWindow - 24*time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDoc(
			rssEntry("fresh golang news", "https://example.com/fresh", recent),
			rssEntry("ancient golang news", "https://example.com/stale", stale),
			rssEntry("undated golang news", "https://example.com/undated", time.Time{}),
		))
	}))
	defer srv.Close()

	items, err := testFeedAdapter(srv.URL).Fetch(context.Background(), "golang")
	if err != nil {
		t.Fatal(err)
	}

	// The stale entry falls outside the recency window; the undated entry
	// is kept since its age is unknown.
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	if items[0].URL != "https://example.com/fresh" {
		t.Errorf("first item URL = %s", items[0].URL)
	}
	if items[1].URL != "https://example.com/undated" {
		t.Errorf("second item URL = %s", items[1].URL)
	}
	for _, item := range items {
		if item.Source != SourceHN {
			t.Errorf("item %s tagged %s, want hn", item.URL, item.Source)
		}
	}
}

func TestFeedAdapterFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := testFeedAdapter(srv.URL).Fetch(context.Background(), "golang"); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestFeedAdapterFetchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := testFeedAdapter("http://unreachable.invalid").Fetch(ctx, "golang"); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}

func TestDDGAdapterFetch(t *testing.T) {
	page := `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpi">Raspberry Pi 5 benchmarks</a>
  <a class="result__snippet" href="#">Benchmarks of the <b>Raspberry Pi 5</b> board.</a>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/direct">A direct result</a>
  <a class="result__snippet" href="#">No redirect wrapper here.</a>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/untitled"></a>
</div>
</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	a := &ddgAdapter{client: newClient(5 * time.Second), limiter: newLimiter()}

	// Point the scrape at the test server by rewriting the request URL
	// through a transport shim.
	a.client.Transport = rewriteHost(srv.URL)

	items, err := a.Fetch(context.Background(), "raspberry pi")
	if err != nil {
		t.Fatal(err)
	}

	// The titleless result is skipped.
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	if items[0].URL != "https://example.com/pi" {
		t.Errorf("redirect not unwrapped: %s", items[0].URL)
	}
	if items[0].Title != "Raspberry Pi 5 benchmarks" {
		t.Errorf("Title = %q", items[0].Title)
	}
	if items[0].Snippet != "Benchmarks of the Raspberry Pi 5 board." {
		t.Errorf("Snippet = %q", items[0].Snippet)
	}
	if items[1].URL != "https://example.com/direct" {
		t.Errorf("direct URL changed: %s", items[1].URL)
	}
	for _, item := range items {
		if !item.Published.IsZero() {
			t.Errorf("scraped item %s has non-zero Published", item.URL)
		}
		if item.Source != SourceDDG {
			t.Errorf("item %s tagged %s, want ddg", item.URL, item.Source)
		}
	}
}

// rewriteHost redirects every request to the given test server.
type rewriteHost string

func (h rewriteHost) RoundTrip(req *http.Request) (*http.Response, error) {
	target := strings.TrimPrefix(string(h), "http://")
	req.URL.Scheme = "http"
	req.URL.Host = target
	return http.DefaultTransport.RoundTrip(req)
}
