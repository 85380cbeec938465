package cluster

import (
	"strings"
	"time"
	"unicode"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/ingest"
)

const (
	titleWeight   = 0.7
	excerptWeight = 0.3
	// proximityDamping scales similarity for items published further
	// apart than the proximity window.
	proximityDamping = 0.6
)

// similarity combines token overlap of the normalized titles and
// excerpts, dampened when the items are not close in time. Pure function
// of its inputs: no randomness, no clock reads.
func similarity(a, b ingest.Item, gap, proximityWindow time.Duration) float64 {
	titleSim := jaccard(tokenSet(a.Title), tokenSet(b.Title))

	var sim float64
	aExcerpt, bExcerpt := tokenSet(a.BodyExcerpt), tokenSet(b.BodyExcerpt)
	if len(aExcerpt) == 0 || len(bExcerpt) == 0 {
		sim = titleSim
	} else {
		sim = titleWeight*titleSim + excerptWeight*jaccard(aExcerpt, bExcerpt)
	}

	if gap > proximityWindow {
		sim *= proximityDamping
	}
	return sim
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	shared := 0
	for tok := range small {
		if large[tok] {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "is": true, "it": true, "its": true,
	"this": true, "that": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true, "do": true,
	"does": true, "did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "not": true, "no": true, "nor": true,
	"how": true, "what": true, "when": true, "where": true, "who": true, "which": true,
	"why": true, "all": true, "each": true, "every": true, "both": true, "few": true,
	"more": true, "most": true, "other": true, "some": true, "such": true, "than": true,
	"too": true, "very": true, "just": true, "about": true, "into": true, "over": true,
	"after": true, "before": true, "between": true, "under": true, "above": true,
	"out": true, "up": true, "down": true, "off": true, "our": true, "your": true,
	"we": true, "you": true, "they": true, "them": true, "their": true, "new": true,
	"now": true, "here": true, "via": true, "announcing": true, "introducing": true,
}

// tokenSet lowercases, strips punctuation, and drops stop words and
// short tokens.
func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(word) < 3 {
			continue
		}
		if stopWords[word] {
			continue
		}
		set[word] = true
	}
	return set
}
