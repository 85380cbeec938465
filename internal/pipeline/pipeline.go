// Package pipeline runs one end-to-end episode build: fetch, diff,
// cluster, script, synthesize, stitch, publish, then commit snapshots.
//
// Snapshot commits happen only after everything downstream has
// succeeded. A run produces a single shared episode artifact, so a
// failure anywhere leaves every source's snapshot untouched and the
// same items surface again next run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/ai"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/audio"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/cluster"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/config"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/diff"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/ingest"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/publish"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/script"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/snapshot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchRenderer is the synthesis stage as the pipeline sees it.
type BatchRenderer interface {
	RenderBatches(ctx context.Context, batches []script.Batch) ([]audio.Clip, error)
}

// Options wires one run. Config, Store, and Log are required;
// Generator and Renderer may be nil only for dry runs.
type Options struct {
	Config    *config.Config
	Store     *snapshot.Store
	Generator ai.Generator
	Renderer  BatchRenderer
	SitePath  string
	DryRun    bool
	Log       *zap.Logger
}

// SourceResult summarizes one source's contribution to the run.
type SourceResult struct {
	SourceID string
	Fetched  bool
	Reason   ingest.FailReason
	Total    int
	New      int
}

// Report is what a run produced.
type Report struct {
	RunID        string
	Date         time.Time
	Sources      []SourceResult
	NewItems     int
	Themes       int
	Segments     int
	Batches      int
	Script       string
	ArtifactPath string
	Duration     time.Duration
	Skipped      bool
	DryRun       bool
}

// Run builds one episode. It returns a partial Report alongside any
// error so callers can show how far the run got.
func Run(ctx context.Context, opts Options) (Report, error) {
	cfg := opts.Config
	log := opts.Log
	report := Report{
		RunID:  uuid.NewString(),
		Date:   time.Now(),
		DryRun: opts.DryRun,
	}
	log.Info("run started", zap.String("run_id", report.RunID), zap.Bool("dry_run", opts.DryRun))

	fetcher := ingest.NewSet(cfg.LookbackDuration(), config.AnthropicKey(), log)
	outcomes := fetcher.FetchAll(ctx, cfg.EnabledSources())

	// pending maps each successfully fetched source to the full ID set
	// that will replace its snapshot once the run succeeds.
	pending := make(map[string][]string)
	var newItems []ingest.Item

	for _, out := range outcomes {
		res := SourceResult{SourceID: out.SourceID, Fetched: out.Fetched(), Reason: out.Reason, Total: len(out.Items)}
		if out.Fetched() {
			seen, err := opts.Store.Load(out.SourceID)
			if err != nil {
				return report, fmt.Errorf("load snapshot for %s: %w", out.SourceID, err)
			}
			fresh := diff.New(out.Items, seen)
			res.New = len(fresh)
			newItems = append(newItems, fresh...)
			pending[out.SourceID] = diff.IDs(out.Items)
		}
		report.Sources = append(report.Sources, res)
	}
	report.NewItems = len(newItems)
	log.Info("fetch complete",
		zap.Int("sources", len(outcomes)),
		zap.Int("new_items", len(newItems)))

	if len(newItems) == 0 {
		// Nothing to say this week. Still commit so items that aged out
		// of the lookback window leave the snapshots.
		report.Skipped = true
		if opts.DryRun {
			return report, nil
		}
		if err := commitAll(opts.Store, pending); err != nil {
			return report, err
		}
		return report, nil
	}

	themes, err := cluster.Cluster(newItems, cluster.Options{
		SimilarityThreshold: cfg.SimilarityThreshold(),
		ProximityWindow:     cfg.ProximityWindow(),
		SameSourceWindow:    cfg.SameSourceWindow(),
		MaxThemes:           cfg.MaxThemes(),
	})
	if err != nil {
		return report, fmt.Errorf("clustering: %w", err)
	}
	report.Themes = len(themes)
	for i, t := range themes {
		log.Debug("theme",
			zap.Int("rank", i+1),
			zap.String("id", t.ID),
			zap.Int("members", len(t.Members)),
			zap.Int("sources", t.SourceCount))
	}

	segments, err := opts.Generator.GenerateScript(ctx, themes)
	if err != nil {
		return report, fmt.Errorf("script generation: %w", err)
	}
	report.Segments = len(segments)

	batches, err := script.Plan(segments, cfg.MaxChunkChars())
	if err != nil {
		return report, fmt.Errorf("chunk planning: %w", err)
	}
	report.Batches = len(batches)

	planned := script.Flatten(batches)
	report.Script = renderTranscript(planned)

	if opts.DryRun {
		log.Info("dry run complete, snapshots untouched",
			zap.Int("themes", len(themes)),
			zap.Int("segments", len(planned)),
			zap.Int("batches", len(batches)))
		return report, nil
	}

	clips, err := opts.Renderer.RenderBatches(ctx, batches)
	if err != nil {
		return report, fmt.Errorf("synthesis: %w", err)
	}

	gaps := audio.PlanGaps(planned, audio.GapConfig{
		ThemeChange: cfg.ThemeGap(),
		SpeakerTurn: cfg.SpeakerTurnGap(),
		MidTurn:     cfg.MidTurnGap(),
	})
	track, err := audio.Assemble(clips, gaps, cfg.SampleRate())
	if err != nil {
		return report, fmt.Errorf("assembly: %w", err)
	}
	report.Duration = track.Duration()

	episode, err := writeEpisode(opts.SitePath, report.Date, track, themes)
	if err != nil {
		return report, err
	}
	report.ArtifactPath = filepath.Join(opts.SitePath, episode.FileName)

	if err := opts.Store.AddEpisode(episode); err != nil {
		return report, fmt.Errorf("record episode: %w", err)
	}

	pub := publish.New(opts.SitePath, publish.FeedOptions{
		Title:   cfg.ShowTitle,
		Link:    cfg.BaseURL,
		BaseURL: cfg.BaseURL,
	}, log)
	episodes, err := opts.Store.Episodes()
	if err != nil {
		return report, fmt.Errorf("list episodes: %w", err)
	}
	if err := pub.WriteFeed(episodes); err != nil {
		return report, err
	}
	if err := pub.WriteChapters(episode); err != nil {
		return report, err
	}

	if err := commitAll(opts.Store, pending); err != nil {
		return report, err
	}

	log.Info("run complete",
		zap.String("artifact", report.ArtifactPath),
		zap.Duration("episode", report.Duration))
	return report, nil
}

func commitAll(store *snapshot.Store, pending map[string][]string) error {
	for sourceID, ids := range pending {
		if err := store.Commit(sourceID, ids); err != nil {
			return fmt.Errorf("commit snapshot for %s: %w", sourceID, err)
		}
	}
	return nil
}

// writeEpisode writes the WAV artifact and returns its index entry.
func writeEpisode(sitePath string, date time.Time, track audio.Track, themes []cluster.Theme) (snapshot.Episode, error) {
	if err := os.MkdirAll(sitePath, 0o755); err != nil {
		return snapshot.Episode{}, err
	}

	stamp := date.Format("2006-01-02")
	name := "episode_" + stamp + ".wav"
	path := filepath.Join(sitePath, name)

	f, err := os.Create(path)
	if err != nil {
		return snapshot.Episode{}, err
	}
	if err := audio.WriteWAV(f, track); err != nil {
		f.Close()
		return snapshot.Episode{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return snapshot.Episode{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return snapshot.Episode{}, err
	}

	ep := snapshot.Episode{
		GUID:        "episode_" + stamp,
		Title:       "AI Weekly Digest for " + date.Format("January 2, 2006"),
		FileName:    name,
		SizeBytes:   info.Size(),
		DurationS:   track.Duration().Seconds(),
		PubDate:     date,
		Description: describeThemes(themes),
	}
	for _, m := range track.Markers {
		title := "Theme " + fmt.Sprint(m.ThemeIndex+1)
		if m.ThemeIndex < len(themes) {
			title = themes[m.ThemeIndex].Representative.Title
		}
		ep.Chapters = append(ep.Chapters, snapshot.Chapter{
			Title:  title,
			Offset: m.Offset.Seconds(),
		})
	}
	return ep, nil
}

func describeThemes(themes []cluster.Theme) string {
	if len(themes) == 0 {
		return "This week's AI news."
	}
	desc := "This week: "
	for i, t := range themes {
		if i > 0 {
			desc += "; "
		}
		desc += t.Representative.Title
	}
	return desc
}

func renderTranscript(segments []script.Segment) string {
	var b strings.Builder
	lastTheme := -1
	for _, seg := range segments {
		if seg.ThemeIndex != lastTheme {
			fmt.Fprintf(&b, "[THEME %d]\n", seg.ThemeIndex+1)
			lastTheme = seg.ThemeIndex
		}
		fmt.Fprintf(&b, "[%s]: %s\n", strings.ToUpper(string(seg.Speaker)), seg.Text)
	}
	return b.String()
}
