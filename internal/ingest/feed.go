package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/config"
	"github.com/mmcdole/gofeed"
)

const excerptLimit = 500

// feedFetcher handles rss and atom sources via gofeed.
type feedFetcher struct {
	parser   *gofeed.Parser
	lookback time.Duration
}

func newFeedFetcher(lookback time.Duration) *feedFetcher {
	return &feedFetcher{parser: gofeed.NewParser(), lookback: lookback}
}

func (f *feedFetcher) Fetch(ctx context.Context, source config.Source) ([]Item, error) {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	now := time.Now().UTC()
	maxAge := now.Add(-f.lookback)
	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		pub := now
		hasDate := false
		if entry.PublishedParsed != nil {
			pub = entry.PublishedParsed.UTC()
			hasDate = true
		} else if entry.UpdatedParsed != nil {
			// GitHub Atom feeds carry <updated>, not <published>
			pub = entry.UpdatedParsed.UTC()
			hasDate = true
		}

		if hasDate && pub.Before(maxAge) {
			continue
		}

		body := entry.Description
		if body == "" {
			body = entry.Content
		}
		body = truncate(stripHTML(body), excerptLimit)

		id := entry.GUID
		if id == "" {
			id = entry.Link
		}

		items = append(items, Item{
			SourceID:    source.Name,
			ExternalID:  externalID(id),
			Title:       entry.Title,
			BodyExcerpt: body,
			URL:         entry.Link,
			PublishedAt: pub,
			FetchedAt:   now,
		})
	}
	return items, nil
}
