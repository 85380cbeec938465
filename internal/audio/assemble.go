// Package audio stitches rendered speech into one continuous track.
//
// Everything here is integer sample math over mono PCM16. The stitched
// track's length is exactly the sum of the clip lengths plus the
// inserted silence, in samples: the advertised episode duration must
// match playback, so no resampling, crossfading, or trimming happens.
package audio

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Clip is one rendered segment's audio.
type Clip struct {
	Samples       []int16
	SampleRate    int
	SequenceIndex int
	ThemeIndex    int
}

// Duration is the clip's play time at its own sample rate.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return samplesToDuration(len(c.Samples), c.SampleRate)
}

// GapSpec declares silence to insert after the clip with the given
// sequence index.
type GapSpec struct {
	AfterIndex int
	Duration   time.Duration
}

// Marker records the offset where a theme's discussion begins.
type Marker struct {
	ThemeIndex int
	Offset     time.Duration
}

// Track is the assembled episode audio.
type Track struct {
	Samples    []int16
	SampleRate int
	Markers    []Marker
}

func (t Track) Duration() time.Duration {
	return samplesToDuration(len(t.Samples), t.SampleRate)
}

// AssemblyError is fatal for the run: a partial episode is never
// published.
type AssemblyError struct {
	SequenceIndex int
	Reason        string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembling segment %d: %s", e.SequenceIndex, e.Reason)
}

// Assemble concatenates clips in sequence order with the silence each
// gap spec declares between adjacent pairs. Output length in samples is
// exactly sum(clip samples) + sum(gap samples). Any missing,
// zero-length, or rate-mismatched clip fails the whole assembly.
func Assemble(clips []Clip, gaps []GapSpec, sampleRate int) (Track, error) {
	if len(clips) == 0 {
		return Track{}, &AssemblyError{SequenceIndex: -1, Reason: "no clips to assemble"}
	}

	ordered := make([]Clip, len(clips))
	copy(ordered, clips)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SequenceIndex < ordered[j].SequenceIndex
	})

	gapAfter := make(map[int]time.Duration, len(gaps))
	for _, g := range gaps {
		gapAfter[g.AfterIndex] = g.Duration
	}

	total := 0
	for i, c := range ordered {
		if len(c.Samples) == 0 {
			return Track{}, &AssemblyError{SequenceIndex: c.SequenceIndex, Reason: "rendered audio is missing or zero-length"}
		}
		if c.SampleRate != sampleRate {
			return Track{}, &AssemblyError{
				SequenceIndex: c.SequenceIndex,
				Reason:        fmt.Sprintf("sample rate %d does not match track rate %d", c.SampleRate, sampleRate),
			}
		}
		total += len(c.Samples)
		if i < len(ordered)-1 {
			total += durationToSamples(gapAfter[c.SequenceIndex], sampleRate)
		}
	}

	track := Track{
		Samples:    make([]int16, 0, total),
		SampleRate: sampleRate,
	}

	lastTheme := -1
	for i, c := range ordered {
		if c.ThemeIndex != lastTheme {
			track.Markers = append(track.Markers, Marker{
				ThemeIndex: c.ThemeIndex,
				Offset:     samplesToDuration(len(track.Samples), sampleRate),
			})
			lastTheme = c.ThemeIndex
		}

		track.Samples = append(track.Samples, c.Samples...)

		if i < len(ordered)-1 {
			n := durationToSamples(gapAfter[c.SequenceIndex], sampleRate)
			track.Samples = append(track.Samples, make([]int16, n)...)
		}
	}

	return track, nil
}

func durationToSamples(d time.Duration, rate int) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * float64(rate)))
}

func samplesToDuration(n, rate int) time.Duration {
	return time.Duration(float64(n) / float64(rate) * float64(time.Second))
}

// FormatITunes renders a duration as HH:MM:SS for the feed.
func FormatITunes(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
