package tts

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/audio"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSynth struct {
	mu    sync.Mutex
	calls int
	fail  func(seg script.Segment) error
}

func (f *fakeSynth) Synthesize(ctx context.Context, seg script.Segment) (audio.Clip, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail != nil {
		if err := f.fail(seg); err != nil {
			return audio.Clip{}, err
		}
	}
	return audio.Clip{
		Samples:       make([]int16, 100*(seg.SequenceIndex+1)),
		SampleRate:    24000,
		SequenceIndex: seg.SequenceIndex,
		ThemeIndex:    seg.ThemeIndex,
	}, nil
}

func batchesFor(texts ...string) []script.Batch {
	var batches []script.Batch
	for i, text := range texts {
		batches = append(batches, script.Batch{
			Index: i,
			Segments: []script.Segment{
				{Speaker: script.Expert, Text: text, SequenceIndex: i},
			},
		})
	}
	return batches
}

func TestRenderBatches(t *testing.T) {
	synth := &fakeSynth{}
	r := NewRenderer(synth, 2, zap.NewNop())

	clips, err := r.RenderBatches(context.Background(), batchesFor("one", "two", "three"))
	require.NoError(t, err)
	require.Len(t, clips, 3)

	for i, clip := range clips {
		assert.Equal(t, i, clip.SequenceIndex, "clips must come back in sequence order")
		assert.Len(t, clip.Samples, 100*(i+1))
	}
	assert.Equal(t, 3, synth.calls)
}

func TestRenderBatchesPermanentFailure(t *testing.T) {
	boom := &ttsStatusError{status: 400, body: "voice not found"}
	synth := &fakeSynth{fail: func(seg script.Segment) error {
		if seg.SequenceIndex == 1 {
			return boom
		}
		return nil
	}}
	r := NewRenderer(synth, 1, zap.NewNop())

	_, err := r.RenderBatches(context.Background(), batchesFor("one", "two"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch 1")
	assert.Contains(t, err.Error(), "voice not found")
	assert.Equal(t, 2, synth.calls, "a permanent error must not be retried")
}

func TestRetryableTTS(t *testing.T) {
	assert.True(t, retryableTTS(&ttsStatusError{status: 429}))
	assert.True(t, retryableTTS(&ttsStatusError{status: 503}))
	assert.False(t, retryableTTS(&ttsStatusError{status: 400}))
	assert.True(t, retryableTTS(errors.New("connection reset")))
}
