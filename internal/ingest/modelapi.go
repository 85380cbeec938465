package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/config"
)

// modelAPIFetcher polls the Anthropic models listing. Each model becomes
// one item keyed by its model id, so only newly listed models survive the
// snapshot diff.
type modelAPIFetcher struct {
	client *http.Client
	apiKey string
}

func newModelAPIFetcher(client *http.Client, apiKey string) *modelAPIFetcher {
	return &modelAPIFetcher{client: client, apiKey: apiKey}
}

type modelList struct {
	Data []struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		CreatedAt   string `json:"created_at"`
	} `json:"data"`
}

func (f *modelAPIFetcher) Fetch(ctx context.Context, source config.Source) ([]Item, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("fetching %s: ANTHROPIC_API_KEY not set", source.Name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", f.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, &httpStatusError{source: source.Name, status: resp.StatusCode}
	}

	var list modelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source.Name, err)
	}

	now := time.Now().UTC()
	items := make([]Item, 0, len(list.Data))
	for _, m := range list.Data {
		title := m.DisplayName
		if title == "" {
			title = m.ID
		}
		pub := now
		if t, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
			pub = t.UTC()
		}
		items = append(items, Item{
			SourceID:    source.Name,
			ExternalID:  m.ID,
			Title:       title,
			BodyExcerpt: fmt.Sprintf("Model %s (created %s)", m.ID, m.CreatedAt),
			URL:         source.URL,
			PublishedAt: pub,
			FetchedAt:   now,
		})
	}
	return items, nil
}
