package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/config"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/retry"
	"go.uber.org/zap"
)

const userAgent = "AIPodcastBot/1.0"

const requestTimeout = 30 * time.Second

// Fetcher turns one configured source into normalized items.
type Fetcher interface {
	Fetch(ctx context.Context, source config.Source) ([]Item, error)
}

// Set dispatches each source to the adapter for its fetch method.
type Set struct {
	feed    Fetcher
	scrape  Fetcher
	sitemap Fetcher
	api     Fetcher
	log     *zap.Logger
}

// NewSet builds the adapter set. anthropicKey is only needed when an
// api-method source is configured.
func NewSet(lookback time.Duration, anthropicKey string, log *zap.Logger) *Set {
	client := &http.Client{Timeout: requestTimeout}
	return &Set{
		feed:    newFeedFetcher(lookback),
		scrape:  newScrapeFetcher(client),
		sitemap: newSitemapFetcher(client, lookback, log),
		api:     newModelAPIFetcher(client, anthropicKey),
		log:     log,
	}
}

func (s *Set) fetcherFor(method string) (Fetcher, error) {
	switch method {
	case "rss", "atom":
		return s.feed, nil
	case "scrape":
		return s.scrape, nil
	case "sitemap":
		return s.sitemap, nil
	case "api":
		return s.api, nil
	default:
		return nil, fmt.Errorf("unknown fetch method %q", method)
	}
}

// fetchOne runs one source with a single bounded retry on transport
// errors and classifies the outcome.
func (s *Set) fetchOne(ctx context.Context, source config.Source) Outcome {
	out := Outcome{SourceID: source.Name}

	fetcher, err := s.fetcherFor(source.Method)
	if err != nil {
		out.Err = err
		out.Reason = ReasonParse
		return out
	}

	var items []Item
	err = retry.Do(ctx, retry.Config{
		MaxAttempts:  2,
		InitialDelay: 2 * time.Second,
		Retryable:    transient,
	}, func() error {
		var ferr error
		items, ferr = fetcher.Fetch(ctx, source)
		return ferr
	})
	if err != nil {
		out.Err = err
		out.Reason = classify(err)
		return out
	}

	out.Items = items
	if len(items) == 0 {
		out.Reason = ReasonEmpty
	}
	return out
}

// transient reports whether a fetch error is worth one retry.
// Parse failures are not: the same bytes will fail the same way.
func transient(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.status == http.StatusTooManyRequests || statusErr.status >= 500
	}
	return classify(err) == ReasonNetwork
}

func classify(err error) FailReason {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		if statusErr.status == http.StatusTooManyRequests {
			return ReasonRateLimited
		}
		return ReasonNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ReasonNetwork
	}
	msg := err.Error()
	for _, pattern := range []string{"parse", "parsing", "invalid", "unmarshal"} {
		if strings.Contains(msg, pattern) {
			return ReasonParse
		}
	}
	return ReasonNetwork
}

// FetchAll fetches every source concurrently and returns once all
// outcomes are in. A failed source is an Outcome with Err set, never a
// missing entry: diffing must not start on a partially fetched set.
func (s *Set) FetchAll(ctx context.Context, sources []config.Source) []Outcome {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		outcomes = make([]Outcome, 0, len(sources))
	)

	for _, src := range sources {
		wg.Add(1)
		go func(source config.Source) {
			defer wg.Done()
			out := s.fetchOne(ctx, source)
			if out.Err != nil {
				s.log.Warn("source failed",
					zap.String("source", source.Name),
					zap.String("reason", string(out.Reason)),
					zap.Error(out.Err))
			} else {
				s.log.Info("source fetched",
					zap.String("source", source.Name),
					zap.Int("items", len(out.Items)))
			}
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
		}(src)
	}

	wg.Wait()
	return outcomes
}
