package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/config"
)

// scrapeFetcher extracts the text of a page region selected by CSS.
// The whole region becomes a single item whose external ID is a content
// hash, so an unchanged page diffs to nothing on the next run.
type scrapeFetcher struct {
	client *http.Client
}

func newScrapeFetcher(client *http.Client) *scrapeFetcher {
	return &scrapeFetcher{client: client}
}

func (f *scrapeFetcher) Fetch(ctx context.Context, source config.Source) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{source: source.Name, status: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source.Name, err)
	}

	var parts []string
	doc.Find(source.Selector).Each(func(_ int, sel *goquery.Selection) {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text != "" {
			parts = append(parts, text)
		}
	})

	text := strings.Join(parts, "\n")
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	now := time.Now().UTC()
	return []Item{{
		SourceID:    source.Name,
		ExternalID:  externalID(text),
		Title:       source.Name,
		BodyExcerpt: truncate(text, excerptLimit),
		URL:         source.URL,
		PublishedAt: now,
		FetchedAt:   now,
	}}, nil
}

// httpStatusError lets the dispatcher classify rate limiting separately
// from other transport failures.
type httpStatusError struct {
	source string
	status int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("fetching %s: HTTP %d", e.source, e.status)
}
