package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/ai"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/audio"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/config"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/logging"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/pipeline"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/script"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/snapshot"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/tts"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagDryRun   bool
	flagLookback string
)

var (
	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build this week's episode",
	Long: `Fetch all configured sources, diff against the last successful run,
cluster the new items into themes, and produce a published episode.

With --dry-run the script is generated and printed but nothing is
synthesized, published, or remembered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		log, err := logging.New(flagVerbose)
		if err != nil {
			return err
		}
		defer log.Sync()

		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagLookback != "" {
			d, err := parseSince(flagLookback)
			if err != nil {
				return fmt.Errorf("invalid --lookback value: %w", err)
			}
			cfg.LookbackOverride = d
		}

		store, err := snapshot.Open(config.SnapshotPath())
		if err != nil {
			return fmt.Errorf("opening snapshot store: %w", err)
		}
		defer store.Close()

		opts := pipeline.Options{
			Config:   cfg,
			Store:    store,
			SitePath: config.SitePath(),
			DryRun:   flagDryRun,
			Log:      log,
		}

		opts.Generator, err = ai.NewClaude(ai.Options{
			APIKey:      config.AnthropicKey(),
			Model:       cfg.AI.Model,
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
		}, log)
		if err != nil {
			return err
		}

		if !flagDryRun {
			synth, err := tts.NewGoogle(tts.Options{
				APIKey:     config.TTSKey(),
				SampleRate: cfg.SampleRate(),
				Voices: map[script.Speaker]tts.Voice{
					script.Interviewer: {LanguageCode: cfg.Interviewer.LanguageCode, Name: cfg.Interviewer.Name},
					script.Expert:      {LanguageCode: cfg.Expert.LanguageCode, Name: cfg.Expert.Name},
				},
			})
			if err != nil {
				return err
			}
			opts.Renderer = tts.NewRenderer(synth, cfg.SynthesisConcurrency(), log)
		}

		report, err := pipeline.Run(context.Background(), opts)
		printReport(report)
		return err
	},
}

func init() {
	runCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "generate the script but skip synthesis and publishing")
	runCmd.Flags().StringVar(&flagLookback, "lookback", "", "override the lookback window (e.g., 7d, 48h)")
}

func printReport(r pipeline.Report) {
	fmt.Printf("Run %s\n", styleDim.Render(r.RunID))
	for _, s := range r.Sources {
		if s.Fetched {
			fmt.Printf("  %s %-28s %3d items, %d new\n", styleOK.Render("ok"), s.SourceID, s.Total, s.New)
		} else {
			fmt.Printf("  %s %-28s %s\n", styleWarn.Render("!!"), s.SourceID, s.Reason)
		}
	}
	if r.Skipped {
		fmt.Println("No new items this week, no episode produced.")
		return
	}
	fmt.Printf("Themes: %d  Segments: %d  Batches: %d\n", r.Themes, r.Segments, r.Batches)
	if r.DryRun {
		fmt.Println()
		fmt.Println(r.Script)
		return
	}
	if r.ArtifactPath != "" {
		fmt.Printf("Episode: %s (%s)\n", r.ArtifactPath, audio.FormatITunes(r.Duration))
	}
}

// parseSince accepts Go durations plus a day suffix (7d).
func parseSince(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}
