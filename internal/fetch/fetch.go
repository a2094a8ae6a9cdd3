// Package fetch retrieves raw items from content sources.
//
// Each source (reddit, hn, ddg) has an Adapter that turns a keyword into
// zero or more Items. Adapters fail softly: an error from one adapter is
// reported to the caller and never aborts a fetch cycle. Feed-backed
// adapters parse RSS/Atom with gofeed and drop items older than the
// recency window; the ddg adapter scrapes the HTML results page with
// goquery and yields items without publish dates.
package fetch

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// userAgent identifies keywatch to the sources we poll.
const userAgent = "keywatch/1.0 (+https://github.com/abelbrown/keywatch)"

// recencyWindow is how far back feed adapters look. Feed sources return
// long history; anything older than this is discarded at the adapter.
const recencyWindow = 30 * 24 * time.Hour

// Item is a raw result from one source. Immutable once created.
// A zero Published means the source carries no publish date for the item.
// URL is the deduplication identity; items without a URL are never
// deduplicated against anything.
type Item struct {
	Source    Source
	Title     string
	URL       string
	Published time.Time
	Snippet   string
	Raw       string
}

// Adapter converts a keyword into raw items for one source.
type Adapter interface {
	Source() Source
	Fetch(ctx context.Context, keyword string) ([]Item, error)
}

// DefaultAdapters returns one adapter per supported source.
func DefaultAdapters(timeout time.Duration) []Adapter {
	return []Adapter{
		NewReddit(timeout),
		NewHackerNews(timeout),
		NewDDG(timeout),
	}
}

// newClient builds the HTTP client shared by all adapter constructors.
func newClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// newLimiter builds the per-adapter politeness limiter: one request per
// second with a small burst. Best effort only.
func newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Second), 2)
}

// get issues a rate-limited GET with the keywatch user agent.
func get(ctx context.Context, client *http.Client, limiter *rate.Limiter, url string) (*http.Response, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	return client.Do(req)
}
