package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rate = 24000

func clip(seq, theme, samples int) Clip {
	data := make([]int16, samples)
	for i := range data {
		data[i] = int16(seq + 1)
	}
	return Clip{Samples: data, SampleRate: rate, SequenceIndex: seq, ThemeIndex: theme}
}

func TestAssembleDurationIsExact(t *testing.T) {
	clips := []Clip{
		clip(0, 0, 24000),
		clip(1, 0, 12000),
		clip(2, 1, 6000),
	}
	gaps := []GapSpec{
		{AfterIndex: 0, Duration: 400 * time.Millisecond},
		{AfterIndex: 1, Duration: 800 * time.Millisecond},
	}

	track, err := Assemble(clips, gaps, rate)
	require.NoError(t, err)

	wantSamples := 24000 + 9600 + 12000 + 19200 + 6000
	require.Len(t, track.Samples, wantSamples)
	assert.Equal(t, samplesToDuration(wantSamples, rate), track.Duration())
}

func TestAssembleNoGapAfterLastClip(t *testing.T) {
	clips := []Clip{clip(0, 0, 1000), clip(1, 0, 1000)}
	gaps := []GapSpec{
		{AfterIndex: 0, Duration: 100 * time.Millisecond},
		{AfterIndex: 1, Duration: time.Hour},
	}

	track, err := Assemble(clips, gaps, rate)
	require.NoError(t, err)
	assert.Len(t, track.Samples, 1000+2400+1000)
}

func TestAssembleSortsBySequenceIndex(t *testing.T) {
	clips := []Clip{clip(2, 0, 10), clip(0, 0, 10), clip(1, 0, 10)}

	track, err := Assemble(clips, nil, rate)
	require.NoError(t, err)
	require.Len(t, track.Samples, 30)
	assert.Equal(t, int16(1), track.Samples[0])
	assert.Equal(t, int16(2), track.Samples[10])
	assert.Equal(t, int16(3), track.Samples[20])
}

func TestAssembleGapsAreSilence(t *testing.T) {
	clips := []Clip{clip(0, 0, 100), clip(1, 0, 100)}
	gaps := []GapSpec{{AfterIndex: 0, Duration: 10 * time.Millisecond}}

	track, err := Assemble(clips, gaps, rate)
	require.NoError(t, err)
	for i := 100; i < 100+240; i++ {
		require.Equal(t, int16(0), track.Samples[i])
	}
}

func TestAssembleThemeMarkers(t *testing.T) {
	clips := []Clip{
		clip(0, 0, 2400),
		clip(1, 0, 2400),
		clip(2, 1, 2400),
	}
	gaps := []GapSpec{
		{AfterIndex: 0, Duration: 100 * time.Millisecond},
		{AfterIndex: 1, Duration: 800 * time.Millisecond},
	}

	track, err := Assemble(clips, gaps, rate)
	require.NoError(t, err)
	require.Len(t, track.Markers, 2)

	assert.Equal(t, 0, track.Markers[0].ThemeIndex)
	assert.Equal(t, time.Duration(0), track.Markers[0].Offset)

	assert.Equal(t, 1, track.Markers[1].ThemeIndex)
	assert.Equal(t, samplesToDuration(2400+2400+2400+19200, rate), track.Markers[1].Offset)
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name    string
		clips   []Clip
		wantSeq int
	}{
		{"no clips", nil, -1},
		{"empty clip", []Clip{clip(0, 0, 100), {SampleRate: rate, SequenceIndex: 1}}, 1},
		{"rate mismatch", []Clip{clip(0, 0, 100), {Samples: make([]int16, 10), SampleRate: 8000, SequenceIndex: 1}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(tt.clips, nil, rate)
			require.Error(t, err)
			var aerr *AssemblyError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, tt.wantSeq, aerr.SequenceIndex)
		})
	}
}

func TestDurationToSamples(t *testing.T) {
	assert.Equal(t, 9600, durationToSamples(400*time.Millisecond, rate))
	assert.Equal(t, 0, durationToSamples(0, rate))
	assert.Equal(t, 0, durationToSamples(-time.Second, rate))
	// Rounds rather than truncates.
	assert.Equal(t, 1, durationToSamples(30*time.Microsecond, rate))
}

func TestFormatITunes(t *testing.T) {
	assert.Equal(t, "00:00:09", FormatITunes(9*time.Second))
	assert.Equal(t, "00:12:34", FormatITunes(12*time.Minute+34*time.Second))
	assert.Equal(t, "01:02:03", FormatITunes(time.Hour+2*time.Minute+3*time.Second))
}
