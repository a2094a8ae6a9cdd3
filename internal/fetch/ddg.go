package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// ddgEndpoint is the JavaScript-free results page, the only DuckDuckGo
// surface that can be scraped without a browser.
const ddgEndpoint = "https://html.duckduckgo.com/html/"

// ddgAdapter scrapes DuckDuckGo HTML search results for a keyword.
// Scraped pages carry no publish dates, so every item has a zero
// Published time.
type ddgAdapter struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewDDG returns the DuckDuckGo scrape adapter.
func NewDDG(timeout time.Duration) Adapter {
	return &ddgAdapter{
		client:  newClient(timeout),
		limiter: newLimiter(),
	}
}

func (a *ddgAdapter) Source() Source { return SourceDDG }

// Fetch scrapes one results page for the keyword.
func (a *ddgAdapter) Fetch(ctx context.Context, keyword string) ([]Item, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	resp, err := get(ctx, a.client, a.limiter, ddgEndpoint+"?q="+url.QueryEscape(keyword))
	if err != nil {
		return nil, fmt.Errorf("fetch results page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var items []Item
	doc.Find("div.result").Each(func(_ int, sel *goquery.Selection) {
		anchor := sel.Find("a.result__a").First()
		title := strings.TrimSpace(anchor.Text())
		href, ok := anchor.Attr("href")
		if title == "" || !ok {
			return
		}

		snippet := strings.TrimSpace(sel.Find(".result__snippet").Text())
		items = append(items, Item{
			Source:  SourceDDG,
			Title:   title,
			URL:     unwrapRedirect(href),
			Snippet: truncate(snippet, maxSnippetLen),
			Raw:     snippet,
		})
	})

	return items, nil
}

// unwrapRedirect resolves DuckDuckGo's redirect-wrapper links
// (//duckduckgo.com/l/?uddg=<encoded>) to the true destination URL.
// Links it cannot unwrap are returned unchanged.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if !strings.HasSuffix(u.Path, "/l/") {
		return href
	}
	dest := u.Query().Get("uddg")
	if dest == "" {
		return href
	}
	return dest
}
