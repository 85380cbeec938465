// Package cluster groups the run's new items into themes: clusters of
// items judged to cover the same underlying story.
//
// Clustering is greedy first-fit over a deterministic order. The item
// that founds a theme stays its representative, so two runs over the
// same input always produce byte-identical themes. Themes live for one
// run only and are never persisted.
package cluster

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/ingest"
)

// ErrNondeterministic means two clustering passes over identical input
// disagreed. That breaks the idempotency contract and must halt the run
// before script generation.
var ErrNondeterministic = errors.New("clustering produced different results for identical input")

// Theme is a cluster of items describing the same event.
type Theme struct {
	ID string
	// Members ordered most-recent-first.
	Members []ingest.Item
	// Representative is the item that founded the theme; its title and
	// excerpt stand for the cluster downstream.
	Representative ingest.Item
	Summary        string
	Salience       float64
	SourceCount    int
}

// URLs returns the member URLs in member order, deduplicated.
func (t *Theme) URLs() []string {
	seen := map[string]bool{}
	var urls []string
	for _, m := range t.Members {
		if m.URL != "" && !seen[m.URL] {
			urls = append(urls, m.URL)
			seen[m.URL] = true
		}
	}
	return urls
}

type Options struct {
	// SimilarityThreshold is the minimum similarity for an item to join
	// an existing theme.
	SimilarityThreshold float64
	// ProximityWindow dampens similarity between items published further
	// apart than this.
	ProximityWindow time.Duration
	// SameSourceWindow: two items from the same source with different
	// external IDs published further apart than this never merge. A
	// follow-up story is not the same story.
	SameSourceWindow time.Duration
	// MaxThemes caps the ranked theme list. Themes beyond the cap are
	// dropped for good; their items are already marked seen.
	MaxThemes int
}

func (o Options) withDefaults() Options {
	if o.SimilarityThreshold <= 0 {
		o.SimilarityThreshold = 0.45
	}
	if o.ProximityWindow <= 0 {
		o.ProximityWindow = 72 * time.Hour
	}
	if o.SameSourceWindow <= 0 {
		o.SameSourceWindow = 72 * time.Hour
	}
	if o.MaxThemes <= 0 {
		o.MaxThemes = 6
	}
	return o
}

// Cluster groups items into ranked themes. It clusters twice and
// compares fingerprints: a mismatch surfaces as ErrNondeterministic
// rather than a silently unstable episode.
func Cluster(items []ingest.Item, opts Options) ([]Theme, error) {
	opts = opts.withDefaults()

	themes := clusterOnce(items, opts)
	check := clusterOnce(items, opts)
	if fingerprint(themes) != fingerprint(check) {
		return nil, ErrNondeterministic
	}
	return themes, nil
}

func clusterOnce(items []ingest.Item, opts Options) []Theme {
	ordered := make([]ingest.Item, len(items))
	copy(ordered, items)

	// Descending recency, with (source, external id) as a total-order
	// tie break. First-fit output depends on this order, so it must not
	// depend on map iteration or input permutation.
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		return a.ExternalID < b.ExternalID
	})

	var themes []Theme
	for _, item := range ordered {
		idx := -1
		for i := range themes {
			if mergeable(item, themes[i].Representative, opts) {
				idx = i
				break
			}
		}
		if idx >= 0 {
			themes[idx].Members = append(themes[idx].Members, item)
		} else {
			themes = append(themes, Theme{
				Representative: item,
				Members:        []ingest.Item{item},
			})
		}
	}

	for i := range themes {
		finalize(&themes[i])
	}
	rank(themes)

	if len(themes) > opts.MaxThemes {
		themes = themes[:opts.MaxThemes]
	}
	return themes
}

// mergeable decides whether item joins the theme founded by rep.
func mergeable(item, rep ingest.Item, opts Options) bool {
	gap := item.PublishedAt.Sub(rep.PublishedAt)
	if gap < 0 {
		gap = -gap
	}

	// Same-source guard: distinct items from one publisher spaced wider
	// than the window are follow-ups, not duplicates, no matter how
	// similar the titles read.
	if item.SourceID == rep.SourceID && item.ExternalID != rep.ExternalID && gap > opts.SameSourceWindow {
		return false
	}

	return similarity(item, rep, gap, opts.ProximityWindow) >= opts.SimilarityThreshold
}

func finalize(t *Theme) {
	sources := map[string]bool{}
	for _, m := range t.Members {
		sources[m.SourceID] = true
	}
	t.SourceCount = len(sources)
	t.ID = themeID(t.Representative)
	t.Summary = buildSummary(t)
	t.Salience = float64(len(t.Members)) + 0.1*float64(t.SourceCount)
}

// rank orders themes by member count, then source diversity, then the
// most recent member, then ID for a total order.
func rank(themes []Theme) {
	sort.SliceStable(themes, func(i, j int) bool {
		a, b := themes[i], themes[j]
		if len(a.Members) != len(b.Members) {
			return len(a.Members) > len(b.Members)
		}
		if a.SourceCount != b.SourceCount {
			return a.SourceCount > b.SourceCount
		}
		ra, rb := a.Members[0].PublishedAt, b.Members[0].PublishedAt
		if !ra.Equal(rb) {
			return ra.After(rb)
		}
		return a.ID < b.ID
	})
}

// themeID is stable within a run: it is derived from the representative
// item's identity, not from iteration state.
func themeID(rep ingest.Item) string {
	h := sha256.Sum256([]byte(rep.SourceID + "\x00" + rep.ExternalID))
	return fmt.Sprintf("%x", h[:8])
}

func buildSummary(t *Theme) string {
	rep := t.Representative
	var b strings.Builder
	b.WriteString(rep.Title)
	if rep.BodyExcerpt != "" {
		b.WriteString(" — ")
		b.WriteString(rep.BodyExcerpt)
	}
	if len(t.Members) > 1 {
		b.WriteString(fmt.Sprintf(" (covered by %d sources)", t.SourceCount))
	}
	return b.String()
}

// fingerprint is a canonical digest of theme assignments and order.
func fingerprint(themes []Theme) string {
	h := sha256.New()
	for _, t := range themes {
		h.Write([]byte(t.ID))
		for _, m := range t.Members {
			h.Write([]byte(m.SourceID))
			h.Write([]byte{0})
			h.Write([]byte(m.ExternalID))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
