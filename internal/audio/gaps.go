package audio

import (
	"time"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/script"
)

// GapConfig holds the calibrated silence durations. Theme changes get
// the longest pause, speaker turns a medium one, consecutive lines from
// the same speaker the shortest.
type GapConfig struct {
	ThemeChange time.Duration
	SpeakerTurn time.Duration
	MidTurn     time.Duration
}

// PlanGaps builds one gap spec per adjacent segment pair.
func PlanGaps(segments []script.Segment, cfg GapConfig) []GapSpec {
	if len(segments) < 2 {
		return nil
	}

	gaps := make([]GapSpec, 0, len(segments)-1)
	for i := 0; i < len(segments)-1; i++ {
		cur, next := segments[i], segments[i+1]

		d := cfg.MidTurn
		switch {
		case next.ThemeIndex != cur.ThemeIndex:
			d = cfg.ThemeChange
		case next.Speaker != cur.Speaker:
			d = cfg.SpeakerTurn
		}

		gaps = append(gaps, GapSpec{AfterIndex: cur.SequenceIndex, Duration: d})
	}
	return gaps
}
