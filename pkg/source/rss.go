package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSFeed is a named RSS/Atom feed URL.
type RSSFeed struct {
	Name string
	URL  string
}

// RSS collects ticker-relevant entries from financial news feeds.
type RSS struct {
	client *http.Client
	parser *gofeed.Parser
	feeds  []RSSFeed
	filter *Filter
}

// NewRSS creates a new RSS adapter.
func NewRSS(feeds []RSSFeed, filter *Filter) *RSS {
	return &RSS{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		feeds:  feeds,
		filter: filter,
	}
}

func (r *RSS) Name() SourceType { return SourceRSS }

func (r *RSS) Fetch(ctx context.Context, ticker string, since time.Time) ([]Record, error) {
	records := []Record{}
	var errs []error

	for _, feed := range r.feeds {
		recs, err := r.fetchFeed(ctx, feed, ticker)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, recs...)
	}

	// Surface a failure only when every feed failed; a single dead feed
	// should not discard what the others returned.
	if len(records) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return records, nil
}

func (r *RSS) fetchFeed(ctx context.Context, feed RSSFeed, ticker string) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create rss request %s: %w", feed.Name, err)
	}
	req.Header.Set("User-Agent", "tickersent/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rss %s: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss %s status %d", feed.Name, resp.StatusCode)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse rss %s: %w", feed.Name, err)
	}

	var records []Record
	for _, entry := range parsed.Items {
		if r.filter != nil && !r.filter.MatchesTicker(entry.Title+" "+entry.Description, ticker) {
			continue
		}

		// Prefer gofeed's parsed time; raw Published strings vary wildly
		// across feeds.
		date := ""
		switch {
		case entry.PublishedParsed != nil:
			date = entry.PublishedParsed.UTC().Format(time.RFC3339)
		case entry.UpdatedParsed != nil:
			date = entry.UpdatedParsed.UTC().Format(time.RFC3339)
		default:
			date = entry.Published
		}

		records = append(records, Record{
			Title: entry.Title,
			Body:  truncate(entry.Description, 2000),
			Date:  date,
		})
	}
	return records, nil
}
