package publish

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testEpisode(guid string, pub time.Time) snapshot.Episode {
	return snapshot.Episode{
		GUID:        guid,
		Title:       "AI Weekly Digest",
		FileName:    guid + ".wav",
		SizeBytes:   2048,
		DurationS:   601,
		PubDate:     pub,
		Description: "This week in AI.",
		Chapters: []snapshot.Chapter{
			{Title: "First theme", Offset: 0},
			{Title: "Second theme", Offset: 300.25},
		},
	}
}

func TestWriteFeed(t *testing.T) {
	dir := t.TempDir()
	p := New(dir, FeedOptions{
		Title:   "Test Digest",
		Link:    "https://pod.example.com",
		BaseURL: "https://pod.example.com/media",
	}, zap.NewNop())

	base := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
	episodes := []snapshot.Episode{
		testEpisode("episode_2026-08-23", base),
		testEpisode("episode_2026-08-16", base.AddDate(0, 0, -7)),
	}

	require.NoError(t, p.WriteFeed(episodes))

	data, err := os.ReadFile(filepath.Join(dir, "feed.xml"))
	require.NoError(t, err)
	feed := string(data)

	assert.Contains(t, feed, "<title>Test Digest</title>")
	assert.Contains(t, feed, "episode_2026-08-23")
	assert.Contains(t, feed, "episode_2026-08-16")
	assert.Contains(t, feed, "https://pod.example.com/media/episode_2026-08-23.wav")
	// Newest episode first.
	assert.Less(t,
		strings.Index(feed, "episode_2026-08-23"),
		strings.Index(feed, "episode_2026-08-16"))
}

func TestWriteFeedEmptyHistory(t *testing.T) {
	dir := t.TempDir()
	p := New(dir, FeedOptions{Title: "Empty", Link: "https://pod.example.com"}, zap.NewNop())

	require.NoError(t, p.WriteFeed(nil))

	_, err := os.Stat(filepath.Join(dir, "feed.xml"))
	assert.NoError(t, err)
}

func TestWriteChapters(t *testing.T) {
	dir := t.TempDir()
	p := New(dir, FeedOptions{}, zap.NewNop())

	ep := testEpisode("episode_2026-08-23", time.Now())
	require.NoError(t, p.WriteChapters(ep))

	data, err := os.ReadFile(filepath.Join(dir, ep.FileName+".chapters.json"))
	require.NoError(t, err)

	var cf chapterFile
	require.NoError(t, json.Unmarshal(data, &cf))
	assert.Equal(t, "1.2.0", cf.Version)
	require.Len(t, cf.Chapters, 2)
	assert.Equal(t, "Second theme", cf.Chapters[1].Title)
	assert.Equal(t, 300.25, cf.Chapters[1].StartTime)
}
