package ingest

import (
	"crypto/sha256"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Item is one normalized piece of content from one source.
// (SourceID, ExternalID) uniquely identifies an item across runs.
type Item struct {
	SourceID    string
	ExternalID  string
	Title       string
	BodyExcerpt string
	URL         string
	PublishedAt time.Time
	FetchedAt   time.Time
}

// FailReason classifies why a source contributed nothing this run.
type FailReason string

const (
	ReasonNetwork     FailReason = "network"
	ReasonParse       FailReason = "parse"
	ReasonRateLimited FailReason = "rate_limited"
	ReasonEmpty       FailReason = "empty"
)

// Outcome is the per-source fetch result collected by FetchAll.
// Err is nil for a successful fetch; ReasonEmpty marks a source that
// responded with zero items, which is not a failure.
type Outcome struct {
	SourceID string
	Items    []Item
	Err      error
	Reason   FailReason
}

// Fetched reports whether the source responded, even with zero items.
func (o Outcome) Fetched() bool {
	return o.Err == nil
}

// externalID derives a stable identifier from whatever the source offers.
// Same input, same ID, across runs.
func externalID(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return fmt.Sprintf("%x", h[:16])
}

var stripPolicy = bluemonday.StrictPolicy()

// stripHTML removes markup and collapses whitespace.
func stripHTML(s string) string {
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
