// Package publish maintains the static podcast site: the RSS feed and
// per-episode chapter files, regenerated in full from the episode index.
package publish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eduncan911/podcast"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/snapshot"
	"go.uber.org/zap"
)

// FeedOptions carries the show-level feed metadata.
type FeedOptions struct {
	Title       string
	Link        string
	Description string
	BaseURL     string
}

// Publisher writes feed.xml and chapter files under sitePath.
type Publisher struct {
	sitePath string
	opts     FeedOptions
	log      *zap.Logger
}

func New(sitePath string, opts FeedOptions, log *zap.Logger) *Publisher {
	if opts.Title == "" {
		opts.Title = "AI Weekly Digest"
	}
	if opts.Description == "" {
		opts.Description = "A weekly audio digest of AI industry announcements."
	}
	return &Publisher{sitePath: sitePath, opts: opts, log: log}
}

// WriteFeed regenerates feed.xml from the full episode index, newest
// first. The feed is rebuilt from scratch every run so a bad episode
// entry never persists.
func (p *Publisher) WriteFeed(episodes []snapshot.Episode) error {
	if err := os.MkdirAll(p.sitePath, 0o755); err != nil {
		return err
	}

	now := time.Now()
	var pubDate time.Time
	if len(episodes) > 0 {
		pubDate = episodes[0].PubDate
	} else {
		pubDate = now
	}

	feed := podcast.New(p.opts.Title, p.opts.Link, p.opts.Description, &pubDate, &now)
	feed.Language = "en-us"
	feed.IExplicit = "no"

	for _, ep := range episodes {
		item := podcast.Item{
			Title:       ep.Title,
			Description: ep.Description,
			PubDate:     &ep.PubDate,
		}
		item.GUID = ep.GUID
		// The feed library has no WAV media type. Out-of-range values
		// encode as application/octet-stream, which players accept.
		item.AddEnclosure(p.opts.BaseURL+"/"+ep.FileName, podcast.EnclosureType(-1), ep.SizeBytes)
		item.AddDuration(int64(ep.DurationS))
		if _, err := feed.AddItem(item); err != nil {
			return fmt.Errorf("add episode %s: %w", ep.GUID, err)
		}
	}

	path := filepath.Join(p.sitePath, "feed.xml")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := feed.Encode(f); err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}

	p.log.Info("feed written", zap.String("path", path), zap.Int("episodes", len(episodes)))
	return nil
}

// chapterFile is the Podcasting 2.0 chapters JSON shape.
type chapterFile struct {
	Version  string         `json:"version"`
	Chapters []chapterEntry `json:"chapters"`
}

type chapterEntry struct {
	StartTime float64 `json:"startTime"`
	Title     string  `json:"title"`
}

// WriteChapters writes <episode>.chapters.json next to the feed.
func (p *Publisher) WriteChapters(ep snapshot.Episode) error {
	if err := os.MkdirAll(p.sitePath, 0o755); err != nil {
		return err
	}

	cf := chapterFile{Version: "1.2.0", Chapters: make([]chapterEntry, 0, len(ep.Chapters))}
	for _, ch := range ep.Chapters {
		cf.Chapters = append(cf.Chapters, chapterEntry{StartTime: ch.Offset, Title: ch.Title})
	}

	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return err
	}

	name := ep.FileName + ".chapters.json"
	return os.WriteFile(filepath.Join(p.sitePath, name), data, 0o644)
}
