// Package diff computes a source's new-item set against the last
// committed snapshot.
package diff

import (
	"sort"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/ingest"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/snapshot"
)

// New returns the items whose external IDs are absent from seen, sorted
// most-recent-first. The sort is stable, so items sharing a timestamp
// keep their source-provided order.
//
// An empty current list yields an empty result. Absence of a previously
// seen item is not a removal: the snapshot is never shrunk here.
func New(current []ingest.Item, seen snapshot.Set) []ingest.Item {
	fresh := make([]ingest.Item, 0, len(current))
	for _, item := range current {
		if !seen.Contains(item.ExternalID) {
			fresh = append(fresh, item)
		}
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].PublishedAt.After(fresh[j].PublishedAt)
	})
	return fresh
}

// IDs collects the external IDs of items, preserving order.
func IDs(items []ingest.Item) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ExternalID
	}
	return ids
}
