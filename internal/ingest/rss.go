package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
)

const rssUserAgent = "trendwatch/1.0 (+https://github.com/trendwatch-io/trendwatch)"

// RSS reads ranked titles from an RSS or Atom feed. Feed order is the
// rank order. Entries older than maxAge are dropped so a stale feed
// does not flood the report with history.
type RSS struct {
	id      string
	name    string
	feedURL string
	maxAge  time.Duration
	client  *http.Client
	parser  *gofeed.Parser
	now     func() time.Time
}

// NewRSS builds a feed source. A zero maxAge keeps every entry. now
// defaults to time.Now.
func NewRSS(id, name, feedURL string, maxAge time.Duration, client *http.Client, now func() time.Time) *RSS {
	if name == "" {
		name = id
	}

	if now == nil {
		now = time.Now
	}

	return &RSS{
		id:      id,
		name:    name,
		feedURL: feedURL,
		maxAge:  maxAge,
		client:  client,
		parser:  gofeed.NewParser(),
		now:     now,
	}
}

func (r *RSS) ID() string   { return r.id }
func (r *RSS) Name() string { return r.name }

func (r *RSS) Fetch(ctx context.Context) ([]feed.Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", rssUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", r.id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: status %d", r.id, resp.StatusCode)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", r.id, err)
	}

	items := make([]feed.Observation, 0, len(parsed.Items))
	rank := 0

	for _, item := range parsed.Items {
		title := feed.CleanTitle(item.Title)
		if title == "" {
			continue
		}

		if r.maxAge > 0 && r.tooOld(item) {
			continue
		}

		rank++

		items = append(items, feed.Observation{
			Title: title,
			Ranks: []int{rank},
			URL:   item.Link,
		})
	}

	return items, nil
}

// tooOld reports whether the entry's publication time falls outside
// the age window. Feeds with unparseable or missing dates keep their
// entries.
func (r *RSS) tooOld(item *gofeed.Item) bool {
	published := item.PublishedParsed
	if published == nil && item.Published != "" {
		if t, err := dateparse.ParseAny(item.Published); err == nil {
			published = &t
		}
	}

	if published == nil {
		return false
	}

	return r.now().Sub(*published) > r.maxAge
}
