package audio

import (
	"testing"
	"time"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanGaps(t *testing.T) {
	cfg := GapConfig{
		ThemeChange: 800 * time.Millisecond,
		SpeakerTurn: 400 * time.Millisecond,
		MidTurn:     200 * time.Millisecond,
	}

	segments := []script.Segment{
		{Speaker: script.Interviewer, SequenceIndex: 0, ThemeIndex: 0},
		{Speaker: script.Expert, SequenceIndex: 1, ThemeIndex: 0},
		{Speaker: script.Expert, SequenceIndex: 2, ThemeIndex: 0},
		{Speaker: script.Interviewer, SequenceIndex: 3, ThemeIndex: 1},
	}

	gaps := PlanGaps(segments, cfg)
	require.Len(t, gaps, 3)

	assert.Equal(t, GapSpec{AfterIndex: 0, Duration: cfg.SpeakerTurn}, gaps[0])
	assert.Equal(t, GapSpec{AfterIndex: 1, Duration: cfg.MidTurn}, gaps[1])
	// Theme change wins even though the speaker changes too.
	assert.Equal(t, GapSpec{AfterIndex: 2, Duration: cfg.ThemeChange}, gaps[2])
}

func TestPlanGapsShortInputs(t *testing.T) {
	cfg := GapConfig{SpeakerTurn: time.Second}
	assert.Nil(t, PlanGaps(nil, cfg))
	assert.Nil(t, PlanGaps([]script.Segment{{Speaker: script.Expert}}, cfg))
}
