package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

// feedAdapter fetches a chronological RSS/Atom feed for a keyword query.
// The query URL is built per keyword; parsed items older than the recency
// window are dropped before returning.
type feedAdapter struct {
	source   Source
	queryURL func(keyword string) string
	client   *http.Client
	limiter  *rate.Limiter
	parser   *gofeed.Parser
}

// NewReddit returns the adapter for reddit's public search feed.
func NewReddit(timeout time.Duration) Adapter {
	return &feedAdapter{
		source: SourceReddit,
		queryURL: func(keyword string) string {
			return "https://www.reddit.com/search.rss?q=" + url.QueryEscape(keyword) + "&sort=new"
		},
		client:  newClient(timeout),
		limiter: newLimiter(),
		parser:  gofeed.NewParser(),
	}
}

// NewHackerNews returns the adapter for the hnrss query feed.
func NewHackerNews(timeout time.Duration) Adapter {
	return &feedAdapter{
		source: SourceHN,
		queryURL: func(keyword string) string {
			return "https://hnrss.org/newest?q=" + url.QueryEscape(keyword)
		},
		client:  newClient(timeout),
		limiter: newLimiter(),
		parser:  gofeed.NewParser(),
	}
}

func (a *feedAdapter) Source() Source { return a.source }

// Fetch retrieves and parses the feed for one keyword.
// Respects context cancellation and returns an error on any HTTP or
// parse failure; the caller decides how to handle it.
func (a *feedAdapter) Fetch(ctx context.Context, keyword string) ([]Item, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	resp, err := get(ctx, a.client, a.limiter, a.queryURL(keyword))
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	feed, err := a.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	cutoff := time.Now().Add(-recencyWindow)
	items := make([]Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		item := convertFeedItem(fi, a.source)
		if !item.Published.IsZero() && item.Published.Before(cutoff) {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// convertFeedItem maps a gofeed item onto a raw Item.
// Published falls back to the updated time; absent both, it stays zero.
func convertFeedItem(fi *gofeed.Item, src Source) Item {
	var published time.Time
	if fi.PublishedParsed != nil {
		published = *fi.PublishedParsed
	} else if fi.UpdatedParsed != nil {
		published = *fi.UpdatedParsed
	}

	return Item{
		Source:    src,
		Title:     fi.Title,
		URL:       fi.Link,
		Published: published,
		Snippet:   snippetText(fi.Description),
		Raw:       fi.Description,
	}
}
