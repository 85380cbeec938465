package cluster

import (
	"testing"
	"time"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func item(source, id, title string, published time.Time) ingest.Item {
	return ingest.Item{
		SourceID:    source,
		ExternalID:  id,
		Title:       title,
		URL:         "https://example.com/" + source + "/" + id,
		PublishedAt: published,
	}
}

func TestClusterMergesCrossSourceDuplicates(t *testing.T) {
	items := []ingest.Item{
		item("openai-news", "a1", "OpenAI Launches GPT-5 Flagship Model", base),
		item("openai-blog", "b1", "OpenAI Launches GPT-5 Flagship Model", base.Add(-2*time.Hour)),
		item("gemini-blog", "c1", "Gemini Adds Native Video Understanding", base.Add(-5*time.Hour)),
	}

	themes, err := Cluster(items, Options{})
	require.NoError(t, err)
	require.Len(t, themes, 2)

	assert.Len(t, themes[0].Members, 2)
	assert.Equal(t, 2, themes[0].SourceCount)
	assert.Len(t, themes[1].Members, 1)
}

func TestClusterKeepsDissimilarItemsApart(t *testing.T) {
	items := []ingest.Item{
		item("openai-blog", "a", "OpenAI Launches GPT-5 Flagship Model", base),
		item("anthropic-news", "b", "Anthropic Ships Agentic Coding Tools", base.Add(-time.Hour)),
	}

	themes, err := Cluster(items, Options{})
	require.NoError(t, err)
	assert.Len(t, themes, 2)
}

func TestClusterDeterministicAcrossInputOrder(t *testing.T) {
	items := []ingest.Item{
		item("openai-blog", "a", "OpenAI Launches GPT-5 Flagship Model", base),
		item("openai-news", "b", "OpenAI Launches GPT-5 Flagship Model", base.Add(-time.Hour)),
		item("gemini-blog", "c", "Gemini Adds Native Video Understanding", base.Add(-2*time.Hour)),
		item("anthropic-news", "d", "Anthropic Ships Agentic Coding Tools", base.Add(-3*time.Hour)),
	}
	reversed := make([]ingest.Item, len(items))
	for i, it := range items {
		reversed[len(items)-1-i] = it
	}

	first, err := Cluster(items, Options{})
	require.NoError(t, err)
	second, err := Cluster(reversed, Options{})
	require.NoError(t, err)

	require.Equal(t, fingerprint(first), fingerprint(second))
	require.Equal(t, first, second)
}

func TestClusterSameSourceGuard(t *testing.T) {
	// Identical titles, same publisher, ten days apart: a follow-up
	// story, not a duplicate.
	items := []ingest.Item{
		item("openai-blog", "a", "OpenAI Launches GPT-5 Flagship Model", base),
		item("openai-blog", "b", "OpenAI Launches GPT-5 Flagship Model", base.Add(-10*24*time.Hour)),
	}

	themes, err := Cluster(items, Options{})
	require.NoError(t, err)
	assert.Len(t, themes, 2)
}

func TestClusterSameSourceWithinWindowMerges(t *testing.T) {
	items := []ingest.Item{
		item("openai-blog", "a", "OpenAI Launches GPT-5 Flagship Model", base),
		item("openai-blog", "b", "OpenAI Launches GPT-5 Flagship Model", base.Add(-24*time.Hour)),
	}

	themes, err := Cluster(items, Options{})
	require.NoError(t, err)
	require.Len(t, themes, 1)
	assert.Len(t, themes[0].Members, 2)
}

func TestClusterProximityDamping(t *testing.T) {
	// Title overlap lands between the damped and undamped thresholds,
	// so only the temporally close pair merges.
	titleA := "OpenAI Launches GPT-5 Flagship Model"
	titleB := "OpenAI Launches GPT-5 Flagship Pricing"

	near := []ingest.Item{
		item("openai-blog", "a", titleA, base),
		item("openai-news", "b", titleB, base.Add(-24*time.Hour)),
	}
	themes, err := Cluster(near, Options{})
	require.NoError(t, err)
	assert.Len(t, themes, 1)

	far := []ingest.Item{
		item("openai-blog", "a", titleA, base),
		item("openai-news", "b", titleB, base.Add(-10*24*time.Hour)),
	}
	themes, err = Cluster(far, Options{})
	require.NoError(t, err)
	assert.Len(t, themes, 2)
}

func TestClusterRanking(t *testing.T) {
	items := []ingest.Item{
		item("gemini-blog", "solo", "Gemini Adds Native Video Understanding", base),
		item("openai-blog", "a", "OpenAI Launches GPT-5 Flagship Model", base.Add(-6*time.Hour)),
		item("openai-news", "b", "OpenAI Launches GPT-5 Flagship Model", base.Add(-7*time.Hour)),
		item("techcrunch-ai", "c", "OpenAI Launches GPT-5 Flagship Model", base.Add(-8*time.Hour)),
	}

	themes, err := Cluster(items, Options{})
	require.NoError(t, err)
	require.Len(t, themes, 2)

	assert.Len(t, themes[0].Members, 3)
	assert.Equal(t, 3, themes[0].SourceCount)
	assert.Greater(t, themes[0].Salience, themes[1].Salience)
}

func TestClusterMaxThemesCap(t *testing.T) {
	titles := []string{
		"OpenAI Launches GPT-5 Flagship Model",
		"Anthropic Ships Agentic Coding Tools",
		"Gemini Adds Native Video Understanding",
		"Mistral Releases Open Weights Checkpoint",
	}
	var items []ingest.Item
	for i, title := range titles {
		items = append(items, item("mixed", string(rune('a'+i)), title, base.Add(-time.Duration(i)*time.Hour)))
	}

	themes, err := Cluster(items, Options{MaxThemes: 2})
	require.NoError(t, err)
	assert.Len(t, themes, 2)
}

func TestClusterRepresentativeIsNewestMember(t *testing.T) {
	items := []ingest.Item{
		item("openai-news", "older", "OpenAI Launches GPT-5 Flagship Model", base.Add(-12*time.Hour)),
		item("openai-blog", "newer", "OpenAI Launches GPT-5 Flagship Model", base),
	}

	themes, err := Cluster(items, Options{})
	require.NoError(t, err)
	require.Len(t, themes, 1)
	assert.Equal(t, "newer", themes[0].Representative.ExternalID)
	assert.Equal(t, "newer", themes[0].Members[0].ExternalID)
}

func TestSimilarityEmptyExcerptFallsBackToTitle(t *testing.T) {
	a := ingest.Item{Title: "OpenAI Launches GPT-5 Flagship Model", BodyExcerpt: "a long body about the launch details"}
	b := ingest.Item{Title: "OpenAI Launches GPT-5 Flagship Model"}

	sim := similarity(a, b, 0, 72*time.Hour)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestTokenSetDropsStopWordsAndShortTokens(t *testing.T) {
	set := tokenSet("Announcing the new GPT-5 model, now at OpenAI")
	assert.True(t, set["gpt-5"])
	assert.True(t, set["model"])
	assert.True(t, set["openai"])
	assert.False(t, set["the"])
	assert.False(t, set["new"])
	assert.False(t, set["at"])
	assert.False(t, set["announcing"])
}
